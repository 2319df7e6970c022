package knowledge

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// nominalProjectMonths is the credit given to project technologies that no
// experience bullet mentions.
const nominalProjectMonths = 6

// PostProcess normalizes a résumé in place and fills its derived fields.
func PostProcess(r *Resume) {
	postProcessAt(r, time.Now())
}

func postProcessAt(r *Resume, now time.Time) {
	if r == nil {
		return
	}
	NormalizeTimeline(r)
	r.TotalExperienceYears = totalExperienceYearsAt(r.Experience, now)
	r.SkillExperience = skillExperienceMapAt(r, now)
}

// DurationMonths returns the whole months between start and end. An empty
// end means ongoing. Unparsable starts and negative spans yield 0.
func DurationMonths(start, end string) int {
	return durationMonthsAt(start, end, time.Now())
}

func durationMonthsAt(start, end string, now time.Time) int {
	s, ok := monthIndex(start)
	if !ok {
		return 0
	}
	e, ok := monthIndex(end)
	if !ok {
		e = now.Year()*12 + int(now.Month()) - 1
	}
	return max(e-s, 0)
}

// monthIndex parses YYYY, YYYY-MM or YYYY-MM-DD (also with '/' or '.') into
// year*12 + month-1.
func monthIndex(date string) (int, bool) {
	date = strings.TrimSpace(date)
	if date == "" {
		return 0, false
	}
	parts := strings.FieldsFunc(date, func(r rune) bool { return r == '-' || r == '/' || r == '.' })
	if len(parts) == 0 || len(parts[0]) != 4 {
		return 0, false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	month := 1
	if len(parts) > 1 {
		m, err := strconv.Atoi(parts[1])
		if err != nil || m < 1 || m > 12 {
			return 0, false
		}
		month = m
	}
	return year*12 + month - 1, true
}

// TotalExperienceYears sums experience durations, in years rounded to one decimal.
func TotalExperienceYears(exp []Experience) float64 {
	return totalExperienceYearsAt(exp, time.Now())
}

func totalExperienceYearsAt(exp []Experience, now time.Time) float64 {
	months := 0
	for _, e := range exp {
		months += durationMonthsAt(e.StartDate, e.EndDate, now)
	}
	return math.Round(float64(months)/12*10) / 10
}

// SkillExperienceMap maps each declared skill to the months of experience
// whose bullets mention it. Each entry counts once per skill.
func SkillExperienceMap(r *Resume) map[string]int {
	return skillExperienceMapAt(r, time.Now())
}

func skillExperienceMapAt(r *Resume, now time.Time) map[string]int {
	out := make(map[string]int, len(r.Skills))
	for _, skill := range r.Skills {
		needle := strings.ToLower(skill)
		if needle == "" {
			continue
		}
		months := 0
		for _, e := range r.Experience {
			for _, b := range e.Bullets {
				if strings.Contains(strings.ToLower(b), needle) {
					months += durationMonthsAt(e.StartDate, e.EndDate, now)
					break
				}
			}
		}
		out[skill] = months
	}

	for _, p := range r.Projects {
		for _, tech := range p.Technologies {
			key := lookupFold(out, tech)
			if key == "" {
				key = strings.TrimSpace(tech)
				if key == "" {
					continue
				}
			}
			if out[key] == 0 {
				out[key] = nominalProjectMonths
			}
		}
	}
	return out
}

func lookupFold(m map[string]int, key string) string {
	for k := range m {
		if strings.EqualFold(k, key) {
			return k
		}
	}
	return ""
}

// NormalizeTimeline sorts experience and education newest first (undated
// entries last) and dedupes skills case-insensitively.
func NormalizeTimeline(r *Resume) {
	sort.SliceStable(r.Experience, func(i, j int) bool {
		return startsLater(r.Experience[i].StartDate, r.Experience[j].StartDate)
	})
	sort.SliceStable(r.Education, func(i, j int) bool {
		return startsLater(r.Education[i].StartDate, r.Education[j].StartDate)
	})
	r.Skills = DedupeFold(r.Skills)
}

func startsLater(a, b string) bool {
	ai, aok := monthIndex(a)
	bi, bok := monthIndex(b)
	switch {
	case aok && bok:
		return ai > bi
	case aok:
		return true
	default:
		return false
	}
}

// DedupeFold removes case-insensitive duplicates keeping the first casing and order.
func DedupeFold(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		k := strings.ToLower(s)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}
