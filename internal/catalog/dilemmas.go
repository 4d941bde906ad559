// Package catalog holds the built-in dilemma definitions seeded at startup.
// Titles and descriptions are translation keys; the frontend resolves them.
package catalog

import "dilemma-survey-service/internal/domain"

// Dilemmas returns the seeded dilemma set.
func Dilemmas() []domain.Dilemma {
	return []domain.Dilemma{
		twoOption("doctor",
			"The patient asks you not to tell their family about the diagnosis. Respecting autonomy keeps trust between patient and doctor, but the family may lose the chance to prepare.",
			"Telling the family protects their right to prepare, but it breaks the confidence the patient placed in you and may discourage others from being honest with doctors.",
		),
		twoOption("trolley",
			"Pulling the lever saves five lives at the cost of one. Critics argue that actively causing a death differs morally from allowing deaths to happen.",
			"Not intervening avoids directly causing harm, yet five people die who could have been saved. Inaction is also a choice with consequences.",
		),
		twoOption("lifeboat",
			"Removing one passenger saves the others, but it requires deciding whose life counts less, a judgment no one has the standing to make.",
			"Keeping everyone aboard treats all lives equally, but it risks losing every passenger when the boat sinks.",
		),
		twoOption("whistleblower",
			"Reporting the fraud protects the public, but it may cost colleagues their jobs who had no part in it.",
			"Staying quiet protects your team, but the harm to customers continues and you become complicit.",
		),
		{
			Name:         "teacher",
			Title:        "dilemma.teacher.title",
			Description:  "dilemma.teacher.description",
			OptionsCount: 3,
			Active:       true,
			Options: []domain.Option{
				{Letter: "A"},
				{Letter: "B"},
				{Letter: "C"},
			},
		},
	}
}

func twoOption(name, feedbackA, feedbackB string) domain.Dilemma {
	return domain.Dilemma{
		Name:         name,
		Title:        "dilemma." + name + ".title",
		Description:  "dilemma." + name + ".description",
		OptionsCount: 2,
		Active:       true,
		Options: []domain.Option{
			{Letter: "A", Feedback: feedbackA},
			{Letter: "B", Feedback: feedbackB},
		},
	}
}
