package cmd

import (
	"gapnode/messages"
)

// genCommunities seed the development indexer on init, the first community gets the
// generated encryption key.
var genCommunities = []messages.Community{
	{
		ID:        "optimism",
		Name:      "Optimism",
		NetworkID: 10,
		Programs: []messages.Program{
			{
				ID:   "builders_10",
				Name: "Builders Fund",
				Tracks: []messages.Track{
					{ID: "tooling", Name: "Developer tooling"},
					{ID: "education", Name: "Education"},
				},
				Questions: []messages.Question{
					{ID: "team", Label: "Team size", Required: true},
					{ID: "budget", Label: "Requested budget breakdown", Private: true},
				},
			},
			{ID: "retro_10", Name: "Retro Funding"},
		},
	},
	{
		ID:        "celo",
		Name:      "Celo",
		NetworkID: 42220,
		Programs: []messages.Program{
			{ID: "builders_42220", Name: "Builders Fund"},
		},
	},
	{ID: "sepolia-lab", Name: "Sepolia Lab", NetworkID: 11155111},
}
