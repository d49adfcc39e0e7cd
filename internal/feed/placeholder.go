package feed

import "time"

// PlaceholderMoments is the static seed feed substituted when a remote read
// fails or returns nothing. Read failures stay invisible to the user.
func PlaceholderMoments(now time.Time) []Moment {
	return []Moment{
		{
			ID: "seed-1",
			Author: AuthorRef{
				ID:        "u1",
				Name:      "Alex Rivera",
				AvatarRef: "https://picsum.photos/seed/alex/200/200",
			},
			Kind:          KindPhoto,
			Body:          "The golden hour in the valley today was something else.",
			MediaRef:      "https://picsum.photos/seed/valley/800/1000",
			LocationLabel: "Ojai, CA",
			CreatedAt:     now.Add(-45 * time.Minute),
			Reactions: []Reaction{
				{Kind: "love", DisplayLabel: "Love", Count: 3, UserIDs: map[string]struct{}{"u2": {}, "u3": {}, "u4": {}}},
				{Kind: "smile", DisplayLabel: "Smile", Count: 1, UserIDs: map[string]struct{}{"u5": {}}},
			},
			SyncStatus: SyncConfirmed,
		},
		{
			ID: "seed-2",
			Author: AuthorRef{
				ID:        "u2",
				Name:      "Sarah Jenkins",
				AvatarRef: "https://picsum.photos/seed/sarah/200/200",
			},
			Kind:      KindMusic,
			Body:      `Listening to "Claire de Lune" by Debussy.`,
			CreatedAt: now.Add(-2 * time.Hour),
			Reactions: []Reaction{
				{Kind: "wow", DisplayLabel: "Wow", Count: 2, UserIDs: map[string]struct{}{"u1": {}, "u6": {}}},
			},
			SyncStatus: SyncConfirmed,
		},
		{
			ID: "seed-3",
			Author: AuthorRef{
				ID:        "u3",
				Name:      "Marcus Thorne",
				AvatarRef: "https://picsum.photos/seed/marcus/200/200",
			},
			Kind:      KindSleep,
			Body:      "Turning in. Goodnight, world.",
			CreatedAt: now.Add(-6 * time.Hour),
			Reactions: []Reaction{
				{Kind: "check", DisplayLabel: "Seen", Count: 5, UserIDs: map[string]struct{}{"u1": {}, "u2": {}, "u4": {}, "u5": {}, "u7": {}}},
			},
			SyncStatus: SyncConfirmed,
		},
	}
}
