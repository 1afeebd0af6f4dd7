package optimizer

import "math/rand/v2"

// RoomTier reports how strictly a selected room matches a requirement.
type RoomTier int

const (
	TierPreferred RoomTier = iota + 1
	TierFit
	TierTypeOnly
	TierAny
)

func (t RoomTier) String() string {
	switch t {
	case TierPreferred:
		return "preferred"
	case TierFit:
		return "fit"
	case TierTypeOnly:
		return "type_only"
	case TierAny:
		return "any"
	default:
		return "unknown"
	}
}

func requiredRoomType(req SessionRequirement) RoomType {
	if req.IsLab {
		return RoomTypeLab
	}
	return RoomTypeLecture
}

// SelectRoom picks a room for req, relaxing the match tier by tier: the
// preferred room, a random room of the right type and size, a random room of
// the right type, then any room.
func (pc *ProblemContext) SelectRoom(req SessionRequirement, rng *rand.Rand) (int64, RoomTier) {
	want := requiredRoomType(req)
	seats := pc.Occupants(req)

	if req.PreferredRoomID != 0 {
		if room, ok := pc.roomByID[req.PreferredRoomID]; ok && room.Type == want && room.Capacity >= seats {
			return room.ID, TierPreferred
		}
	}
	if fitting := pc.fittingRooms(req); len(fitting) > 0 {
		return fitting[rng.IntN(len(fitting))].ID, TierFit
	}
	if typed := pc.roomsByType[want]; len(typed) > 0 {
		return typed[rng.IntN(len(typed))].ID, TierTypeOnly
	}
	return pc.rooms[rng.IntN(len(pc.rooms))].ID, TierAny
}

// fittingRooms lists rooms of the right type with enough seats, in catalog order.
func (pc *ProblemContext) fittingRooms(req SessionRequirement) []RoomRef {
	seats := pc.Occupants(req)
	typed := pc.roomsByType[requiredRoomType(req)]
	out := make([]RoomRef, 0, len(typed))
	for _, room := range typed {
		if room.Capacity >= seats {
			out = append(out, room)
		}
	}
	return out
}
