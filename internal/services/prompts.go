package services

import (
	"fmt"
	"strings"

	"github.com/desertthunder/hymnal/internal/models"
	"github.com/desertthunder/hymnal/internal/shared"
)

// SystemPrompt sets the voice for every drafted section.
const SystemPrompt = "You are a thoughtful worship writer for Christian liturgy from a moderate Reformed perspective, " +
	"in line with PC(USA) theology. Write in clear, inclusive language. " +
	"Avoid exclusively male references to God: use 'God' by name, or varied language " +
	"(e.g. 'God who is Father, Son, and Holy Spirit' when trinitarian language fits); " +
	"do not use only 'he/him/his' or 'Lord' alone for God; you may use 'Lord' as one among other titles. " +
	"Keep each piece concise and usable in worship. Output only the liturgy text, no meta-commentary or labels."

// SectionPrompt builds the user prompt for section.
func SectionPrompt(section models.Section, dc models.DraftContext) (string, error) {
	occasion := dc.Occasion
	if occasion == "" {
		occasion = "Sunday worship"
	}
	scriptures := scriptureLines(dc.Readings)

	var prompt string
	switch section {
	case models.CallToWorship:
		opening := "N/A"
		if dc.Hymns.Opening != nil {
			opening = dc.Hymns.Opening.Title
		}
		prompt = fmt.Sprintf("Write a Call to Worship for: %s. Scriptures: %s. Opening hymn: %s. "+
			"Use exactly this format with four parts: 'Leader: ' (2-3 lines), then 'People: ' (one short response), "+
			"then 'Leader: ' again (2-3 lines), then 'People: ' again (one short response).", occasion, scriptures, opening)
	case models.OpeningPrayer:
		prompt = fmt.Sprintf("Write an Opening Prayer (collect) for: %s. Scriptures: %s. "+
			"Around 100 words. Address God, thank or praise, and ask for one thing fitting the day. End with 'Amen.'", occasion, scriptures)
	case models.PrayerOfConfession:
		prompt = fmt.Sprintf("Write a Prayer of Confession for: %s. Scriptures: %s. "+
			"One short paragraph. First person plural (we). End with a line inviting silence or a brief moment of confession.", occasion, scriptures)
	case models.Assurance:
		prompt = fmt.Sprintf("Write only the Leader line for Assurance of Pardon for: %s, grounded in God's grace in Christ. "+
			"One sentence. Do not include 'People:' or 'Thanks be to God'; that will be added separately. "+
			"Start your response with 'Leader: ' followed by the sentence.", occasion)
	case models.PrayerForIllumination:
		prompt = fmt.Sprintf("Write a Prayer for Illumination for: %s. Scriptures: %s. "+
			"Write 3-5 sentences asking God to open hearts and minds to the Scripture, that we may hear and respond. End with 'Amen.'", occasion, scriptures)
	case models.PrayersOfThePeople:
		prompt = fmt.Sprintf("Write Prayers of the People for: %s. Scriptures: %s. Hymns: %s. "+
			"Write a substantial, full prayer (at least 10-15 paragraphs) in 'out to in' order: "+
			"first the world (nations, creation, peace, the suffering), then the Church universal, our denomination and congregation, "+
			"then our country, our local community and leaders, then ourselves and our families. "+
			"Include an explicit invitation for the congregation to share joys and concerns aloud, "+
			"and a clear bid for a moment of silence before God. "+
			"End with a closing that leads into the Lord's Prayer or a final amen.", occasion, scriptures, hymnLines(dc.Hymns))
	case models.OffertoryPrayer:
		prompt = fmt.Sprintf("Write a brief Offertory Prayer for: %s. "+
			"One or two sentences dedicating our gifts and ourselves to God's service. End with 'Amen.'", occasion)
	case models.Benediction:
		prompt = fmt.Sprintf("Write a Benediction (1-3 sentences) for: %s. Scriptures: %s. "+
			"Send the people out to serve and share God's love. You may invoke the Trinity. End with 'Amen.'", occasion, scriptures)
	default:
		return "", fmt.Errorf("%w: no prompt for section %q", shared.ErrGeneration, section)
	}

	if dc.IncludeCommunion {
		prompt += " This service includes the Sacrament of the Lord's Supper."
	}
	return prompt, nil
}

func scriptureLines(readings []models.ScriptureReading) string {
	if len(readings) == 0 {
		return "None specified."
	}
	lines := make([]string, 0, len(readings))
	for _, r := range readings {
		lines = append(lines, "- "+r.Reference)
	}
	return "\n" + strings.Join(lines, "\n")
}

func hymnLines(hymns models.SelectedHymns) string {
	selected := hymns.Hymns()
	if len(selected) == 0 {
		return "None selected."
	}
	lines := make([]string, 0, len(selected))
	for _, h := range selected {
		lines = append(lines, fmt.Sprintf("- %s (#%s)", h.Title, h.NumberString()))
	}
	return "\n" + strings.Join(lines, "\n")
}
