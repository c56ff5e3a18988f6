package listing

import "fmt"

// GenerateListingID generates a listing ID from the current max number.
// The format is PROJ-XXX where XXX is a zero-padded 3-digit number.
func GenerateListingID(currentMax int) string {
	return fmt.Sprintf("PROJ-%03d", currentMax+1)
}

// ParseListingNumber extracts the numeric portion from a listing ID.
// Returns -1 if the ID format is invalid.
func ParseListingNumber(id string) int {
	var num int
	_, err := fmt.Sscanf(id, "PROJ-%d", &num)
	if err != nil {
		return -1
	}
	return num
}
