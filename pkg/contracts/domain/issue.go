package domain

import "fmt"

// Issue is a single validation finding. Issues are diagnostic only and never block output.
type Issue struct {
	Row         int    `json:"row"`
	Field       string `json:"field"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// String renders the issue as a report line
func (i Issue) String() string {
	return fmt.Sprintf("row %d: %s", i.Row, i.Description)
}
