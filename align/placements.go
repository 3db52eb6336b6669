package align

// MapPlacements maps the configured device placements through a committed
// alignment, producing their real-world positions. Placement order is
// preserved.
func MapPlacements(placements []Placement, result AlignmentResult) []WorldPlacement {
	world := make([]WorldPlacement, 0, len(placements))
	for _, p := range placements {
		world = append(world, WorldPlacement{
			ID:       p.ID,
			Name:     p.Name,
			Kind:     p.Kind,
			Position: result.Apply(p.Position),
		})
	}
	return world
}
