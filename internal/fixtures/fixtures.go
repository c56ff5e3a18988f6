// Package fixtures decodes YAML seed files and applies them through the
// allocation engine so every invariant holds for seeded data.
package fixtures

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/bto/internal/ctxutil"
	"github.com/example/bto/internal/ports/primary"
)

//go:embed dev.yaml
var devFixtures []byte

// File is the top-level shape of a fixture file.
type File struct {
	Users    []User    `yaml:"users"`
	Listings []Listing `yaml:"listings"`
}

// User is an identity profile fixture.
type User struct {
	ID            string `yaml:"id"`
	Name          string `yaml:"name"`
	Age           int    `yaml:"age"`
	MaritalStatus string `yaml:"marital_status"`
	Role          string `yaml:"role"`
}

// Listing is a listing fixture created as its manager.
type Listing struct {
	Name         string    `yaml:"name"`
	Neighborhood string    `yaml:"neighborhood"`
	Manager      string    `yaml:"manager"`
	OpenAt       time.Time `yaml:"open_at"`
	CloseAt      time.Time `yaml:"close_at"`
	TwoRoom      int       `yaml:"two_room"`
	ThreeRoom    int       `yaml:"three_room"`
	StaffSlots   int       `yaml:"staff_slots"`
	Visible      bool      `yaml:"visible"`
}

// Seeder is the subset of the engine fixtures are applied through.
type Seeder interface {
	AddUser(ctx context.Context, req primary.AddUserRequest) (*primary.UserResponse, error)
	CreateListing(ctx context.Context, req primary.CreateListingRequest) (*primary.ListingResponse, error)
}

// Parse decodes a fixture file. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	return &f, nil
}

// Default returns the built-in development fixtures.
func Default() (*File, error) {
	return Parse(bytes.NewReader(devFixtures))
}

// Summary counts what Apply created.
type Summary struct {
	Users    int
	Listings int
	Warnings primary.Warnings
}

// Apply adds every user, then creates every listing acting as its manager.
// It stops at the first rejected fixture.
func Apply(ctx context.Context, svc Seeder, f *File) (*Summary, error) {
	summary := &Summary{}
	for _, u := range f.Users {
		resp, err := svc.AddUser(ctx, primary.AddUserRequest{
			ID:            u.ID,
			Name:          u.Name,
			Age:           u.Age,
			MaritalStatus: u.MaritalStatus,
			Role:          ctxutil.Role(u.Role),
		})
		if err != nil {
			return summary, fmt.Errorf("user %s: %w", u.ID, err)
		}
		summary.Users++
		summary.Warnings = append(summary.Warnings, resp.Warnings...)
	}

	for _, l := range f.Listings {
		managerCtx := ctxutil.WithActor(ctx, ctxutil.Actor{ID: l.Manager, Role: ctxutil.RoleManager})
		resp, err := svc.CreateListing(managerCtx, primary.CreateListingRequest{
			Name:           l.Name,
			Neighborhood:   l.Neighborhood,
			OpenAt:         l.OpenAt,
			CloseAt:        l.CloseAt,
			TwoRoomUnits:   l.TwoRoom,
			ThreeRoomUnits: l.ThreeRoom,
			StaffSlots:     l.StaffSlots,
			Visible:        l.Visible,
		})
		if err != nil {
			return summary, fmt.Errorf("listing %q: %w", l.Name, err)
		}
		summary.Listings++
		summary.Warnings = append(summary.Warnings, resp.Warnings...)
	}
	return summary, nil
}
