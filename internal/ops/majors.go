package ops

import "github.com/hpungsan/eventrank/internal/majors"

// ListMajorsOutput contains the result of the ListMajors operation.
type ListMajorsOutput struct {
	Majors []string `json:"majors"`
}

// ListMajors returns the sorted majors list ending with "Other".
func ListMajors(d *Deps) *ListMajorsOutput {
	catalog := d.Majors
	if catalog == nil {
		catalog = majors.Embedded()
	}
	return &ListMajorsOutput{Majors: catalog.List()}
}
