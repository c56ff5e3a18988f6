package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/bto/internal/ports/primary"
)

// ListingCmd returns the listing command
func ListingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listing",
		Short: "Manage housing listings",
		Long:  `Create, browse and administer listings and their application windows.`,
	}

	cmd.AddCommand(listingCreateCmd())
	cmd.AddCommand(listingListCmd())
	cmd.AddCommand(listingShowCmd())
	cmd.AddCommand(listingVisibilityCmd())

	return cmd
}

func listingCreateCmd() *cobra.Command {
	var neighborhood, openAt, closeAt string
	var twoRoom, threeRoom, slots int
	var visible bool

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a listing (manager)",
		Long: `Create a listing managed by the acting manager.

The application window runs from --open to --close inclusive. A manager
cannot manage two listings whose windows overlap.

Examples:
  bto listing create "Acacia Breeze" --neighborhood Yishun --open 2026-10-01 --close 2026-12-31 --two-room 2 --three-room 3
  bto listing create "Boon Lay Glade" --neighborhood "Boon Lay" --open 2027-01-01 --close 2027-02-28 --two-room 4 --slots 2 --visible`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			open, err := parseDate(openAt)
			if err != nil {
				return fmt.Errorf("--open: %w", err)
			}
			cl, err := parseDate(closeAt)
			if err != nil {
				return fmt.Errorf("--close: %w", err)
			}

			adapter, err := allocationAdapter()
			if err != nil {
				return err
			}
			_, err = adapter.CreateListing(NewContext(), primary.CreateListingRequest{
				Name:           args[0],
				Neighborhood:   neighborhood,
				OpenAt:         open,
				CloseAt:        cl,
				TwoRoomUnits:   twoRoom,
				ThreeRoomUnits: threeRoom,
				StaffSlots:     slots,
				Visible:        visible,
			})
			return err
		},
	}

	cmd.Flags().StringVar(&neighborhood, "neighborhood", "", "Neighborhood (required)")
	cmd.Flags().StringVar(&openAt, "open", "", "Window open date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&closeAt, "close", "", "Window close date, YYYY-MM-DD (required)")
	cmd.Flags().IntVar(&twoRoom, "two-room", 0, "Number of 2-room units")
	cmd.Flags().IntVar(&threeRoom, "three-room", 0, "Number of 3-room units")
	cmd.Flags().IntVar(&slots, "slots", 10, "Staff slots (1-10)")
	cmd.Flags().BoolVar(&visible, "visible", false, "Make the listing visible immediately")
	cmd.MarkFlagRequired("neighborhood")
	cmd.MarkFlagRequired("open")
	cmd.MarkFlagRequired("close")

	return cmd
}

func listingListCmd() *cobra.Command {
	var filters primary.ListingFilters

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List listings",
		Long: `List listings visible to the acting user.

Applicants only see visible, open listings they are eligible for.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := allocationAdapter()
			if err != nil {
				return err
			}
			_, err = adapter.ListListings(NewContext(), filters)
			return err
		},
	}

	cmd.Flags().StringVar(&filters.Neighborhood, "neighborhood", "", "Filter by neighborhood")
	cmd.Flags().StringVar(&filters.Category, "category", "", "Filter by unit category (2-room, 3-room)")
	cmd.Flags().StringVar(&filters.ManagerID, "manager", "", "Filter by managing user")
	return cmd
}

func listingShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [listing-id]",
		Short: "Show listing details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := allocationAdapter()
			if err != nil {
				return err
			}
			_, err = adapter.ShowListing(NewContext(), args[0])
			return err
		},
	}
}

func listingVisibilityCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "visibility [listing-id] [on|off]",
		Short:     "Toggle listing visibility (manager)",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var visible bool
			switch normalize(args[1]) {
			case "on", "true", "visible":
				visible = true
			case "off", "false", "hidden":
				visible = false
			default:
				return fmt.Errorf("invalid visibility %q (want on or off)", args[1])
			}

			adapter, err := allocationAdapter()
			if err != nil {
				return err
			}
			_, err = adapter.SetVisibility(NewContext(), args[0], visible)
			return err
		},
	}
}
