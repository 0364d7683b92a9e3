package affiliation

import (
	"fmt"
	"slices"
	"strings"

	"m3c/internal/failure"
	"m3c/pkg/domain"
)

// Lists holds the parallel semicolon-delimited name lists of a project or
// study row, already split.
type Lists struct {
	Institutes  []string
	Departments []string
	Labs        []string
}

// ParseLists splits the raw column values. A blank column yields an absent
// list.
func ParseLists(institutes, departments, labs string) Lists {
	return Lists{
		Institutes:  SplitList(institutes),
		Departments: SplitList(departments),
		Labs:        SplitList(labs),
	}
}

// SplitList splits a semicolon-delimited value and trims every item. Interior
// blanks are kept so that positions stay aligned with the other lists.
func SplitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ";")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// ErrUnmatched reports an organization name that does not resolve.
type ErrUnmatched struct {
	Owner   domain.EntityType
	OwnerID string
	Level   domain.OrgType
	Name    string
}

func (e ErrUnmatched) Error() string {
	return fmt.Sprintf("%s %s: %s %q does not exist", e.Owner, e.OwnerID, e.Level, e.Name)
}

// Resolver maps affiliation name lists onto organization IDs.
type Resolver struct {
	index *Index
}

// NewResolver returns a resolver over index.
func NewResolver(index *Index) *Resolver {
	return &Resolver{index: index}
}

// pick returns list[i], or list[0] when i is out of range. inRange reports
// which one was used.
func pick(list []string, i int) (name string, inRange bool) {
	if i < len(list) {
		return list[i], true
	}
	return list[0], false
}

// Resolve walks the lists position by position. Positions past the end of a
// shorter institute or department list reuse its first element to find the
// parent for the next level, but only positions actually present in a list
// contribute IDs. Positions past the end of the lab list are skipped.
//
// An institute that does not resolve is fatal. A department or lab named at
// its own position that does not resolve under the current parent is fatal
// too; a department borrowed through the fallback that does not resolve only
// leaves the lab level without a parent. Labs only resolve under departments,
// so a lab named without any department list is fatal.
func (r *Resolver) Resolve(owner domain.EntityType, ownerID string, lists Lists) (domain.Affiliation, error) {
	var out domain.Affiliation
	unmatched := func(level domain.OrgType, name string) error {
		err := failure.WithDetail(
			ErrUnmatched{Owner: owner, OwnerID: ownerID, Level: level, Name: name},
			fmt.Sprintf("%s=%s %s=%q", owner, ownerID, level, name),
		)
		return failure.Fatal(err,
			fmt.Sprintf("add a non-withheld %s named %q to the organizations table or correct %s %s", level, name, owner, ownerID))
	}
	if len(lists.Institutes) == 0 {
		return out, unmatched(domain.OrgInstitute, "")
	}

	n := max(len(lists.Institutes), len(lists.Departments), len(lists.Labs))
	for i := range n {
		instName, inRange := pick(lists.Institutes, i)
		inst, ok := r.index.Institute(instName)
		if !ok {
			return domain.Affiliation{}, unmatched(domain.OrgInstitute, instName)
		}
		if inRange {
			out.Institutes = appendUnique(out.Institutes, inst)
		}

		var parents []string
		if len(lists.Departments) > 0 {
			deptName, inRange := pick(lists.Departments, i)
			depts, ok := r.index.Children(deptName, domain.OrgDepartment, parents)
			switch {
			case ok && inRange:
				out.Departments = appendUnique(out.Departments, depts...)
			case !ok && inRange:
				return domain.Affiliation{}, unmatched(domain.OrgDepartment, deptName)
			}
			parents = depts
		}

		if i >= len(lists.Labs) {
			continue
		}
		labName := lists.Labs[i]
		labs, ok := r.index.Children(labName, domain.OrgLaboratory, parents)
		if !ok {
			return domain.Affiliation{}, unmatched(domain.OrgLaboratory, labName)
		}
		out.Labs = appendUnique(out.Labs, labs...)
	}
	return out, nil
}

func appendUnique(dst []string, ids ...string) []string {
	for _, id := range ids {
		if !slices.Contains(dst, id) {
			dst = append(dst, id)
		}
	}
	return dst
}
