package internal

import "slices"

// NextFreeRole hands out roles in RoleOrder, skipping the ones already taken.
// It returns false once all three are in use.
func NextFreeRole(players []*Player) (PlayerRole, bool) {
	taken := make([]PlayerRole, 0, len(players))
	for _, p := range players {
		taken = append(taken, p.Role)
	}
	for _, role := range RoleOrder {
		if !slices.Contains(taken, role) {
			return role, true
		}
	}
	return "", false
}

func FindPlayer(players []*Player, userID string) *Player {
	for _, p := range players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// SortByStanding orders players by score descending. The sort is stable so
// players passed in join order keep it on equal scores.
func SortByStanding(players []*Player) []*Player {
	sorted := slices.Clone(players)
	slices.SortStableFunc(sorted, func(a, b *Player) int {
		return b.Score - a.Score
	})
	return sorted
}
