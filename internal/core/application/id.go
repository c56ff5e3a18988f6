package application

import "fmt"

// GenerateApplicationID generates an application ID from the current max number.
// The format is APP-XXX where XXX is a zero-padded 3-digit number.
func GenerateApplicationID(currentMax int) string {
	return fmt.Sprintf("APP-%03d", currentMax+1)
}

// ParseApplicationNumber extracts the numeric portion from an application ID.
// Returns -1 if the ID format is invalid.
func ParseApplicationNumber(id string) int {
	var num int
	_, err := fmt.Sscanf(id, "APP-%d", &num)
	if err != nil {
		return -1
	}
	return num
}
