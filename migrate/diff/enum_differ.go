package diff

import (
	"slices"
	"sort"

	"github.com/satishbabariya/schema-engine/migrate/schema"
)

func diffEnums(prev, next []*schema.Enum) (created, dropped []*schema.Enum, changed []*EnumDiff) {
	prevByName := make(map[string]*schema.Enum, len(prev))
	for _, e := range prev {
		prevByName[e.Name] = e
	}
	nextByName := make(map[string]*schema.Enum, len(next))
	for _, e := range next {
		nextByName[e.Name] = e
	}

	for _, e := range sortedEnums(next) {
		p, ok := prevByName[e.Name]
		if !ok {
			created = append(created, e)
			continue
		}
		if ed := compareEnum(p, e); ed != nil {
			changed = append(changed, ed)
		}
	}
	for _, e := range sortedEnums(prev) {
		if _, ok := nextByName[e.Name]; !ok {
			dropped = append(dropped, e)
		}
	}
	return created, dropped, changed
}

// compareEnum returns nil when the value sequences are identical.
func compareEnum(prev, next *schema.Enum) *EnumDiff {
	if slices.Equal(prev.Values, next.Values) {
		return nil
	}
	ed := &EnumDiff{Previous: prev, Next: next}
	var prevCommon, nextCommon []string
	for _, v := range next.Values {
		if slices.Contains(prev.Values, v) {
			nextCommon = append(nextCommon, v)
		} else {
			ed.AddedValues = append(ed.AddedValues, v)
		}
	}
	for _, v := range prev.Values {
		if slices.Contains(next.Values, v) {
			prevCommon = append(prevCommon, v)
		} else {
			ed.RemovedValues = append(ed.RemovedValues, v)
		}
	}
	ed.OrderChanged = !slices.Equal(prevCommon, nextCommon)
	return ed
}

func sortedEnums(enums []*schema.Enum) []*schema.Enum {
	out := append([]*schema.Enum(nil), enums...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
