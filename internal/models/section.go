package models

import "fmt"

// Section names a block of liturgy that can be drafted on its own.
type Section string

const (
	CallToWorship         Section = "call_to_worship"
	OpeningPrayer         Section = "opening_prayer"
	PrayerOfConfession    Section = "prayer_of_confession"
	Assurance             Section = "assurance"
	PrayerForIllumination Section = "prayer_for_illumination"
	PrayersOfThePeople    Section = "prayers_of_the_people"
	OffertoryPrayer       Section = "offertory_prayer"
	Benediction           Section = "benediction"
)

// AllSections lists every section in the order it appears in a service.
func AllSections() []Section {
	return []Section{
		CallToWorship,
		OpeningPrayer,
		PrayerOfConfession,
		Assurance,
		PrayerForIllumination,
		PrayersOfThePeople,
		OffertoryPrayer,
		Benediction,
	}
}

// ParseSection validates s against the known sections.
func ParseSection(s string) (Section, error) {
	for _, sec := range AllSections() {
		if string(sec) == s {
			return sec, nil
		}
	}
	return "", fmt.Errorf("unknown liturgy section %q", s)
}

// ParseSections parses each name, failing on the first unknown one.
func ParseSections(names []string) ([]Section, error) {
	out := make([]Section, 0, len(names))
	for _, n := range names {
		sec, err := ParseSection(n)
		if err != nil {
			return nil, err
		}
		out = append(out, sec)
	}
	return out, nil
}

// Title is the heading printed for the section.
func (s Section) Title() string {
	switch s {
	case CallToWorship:
		return "Call to Worship"
	case OpeningPrayer:
		return "Opening Prayer"
	case PrayerOfConfession:
		return "Prayer of Confession"
	case Assurance:
		return "Assurance of Pardon"
	case PrayerForIllumination:
		return "Prayer for Illumination"
	case PrayersOfThePeople:
		return "Prayers of the People"
	case OffertoryPrayer:
		return "Offertory Prayer"
	case Benediction:
		return "Benediction"
	default:
		return string(s)
	}
}
