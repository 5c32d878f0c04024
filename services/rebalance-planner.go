package services

import (
	"fmt"
	"sort"

	"taskhub-backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PendingTaskFetcher returns up to limit of a member's Pending tasks,
// ordered by creation time ascending (oldest first).
type PendingTaskFetcher func(memberID primitive.ObjectID, limit int) ([]models.Task, error)

// BuildMemberLoads computes the capacity ledger for a roster given the
// count of assigned tasks per member id. Members missing from counts have
// zero assigned tasks.
func BuildMemberLoads(members []models.Member, counts map[primitive.ObjectID]int) []models.MemberLoad {
	loads := make([]models.MemberLoad, 0, len(members))
	for _, m := range members {
		assigned := counts[m.ID]
		free := m.Capacity - assigned
		loads = append(loads, models.MemberLoad{
			MemberID:      m.ID,
			Name:          m.Name,
			Role:          m.Role,
			Capacity:      m.Capacity,
			AssignedCount: assigned,
			Free:          free,
			Overloaded:    free < 0,
		})
	}
	return loads
}

// PlanRebalance turns a load snapshot into an ordered list of moves.
//
// Overloaded members (free < 0) are processed most-overloaded first, and
// for each of them up to (assignedCount - capacity) of their oldest Pending
// tasks are handed to the member currently at the head of the available
// list (free > 0, most spare capacity first). A receiver whose tracked free
// capacity reaches zero is dropped from the list; the list is never
// re-sorted mid-run, so decremented receivers keep their original rank.
// Both sorts are stable, preserving roster order between equal members.
//
// Given the same snapshot and the same fetch ordering the plan is fully
// deterministic. maxMoves > 0 caps the plan size as a safety valve.
func PlanRebalance(loads []models.MemberLoad, fetch PendingTaskFetcher, maxMoves int) ([]models.PlannedMove, models.RebalanceReason, error) {
	var overloaded, available []models.MemberLoad
	for _, m := range loads {
		switch {
		case m.Free < 0:
			overloaded = append(overloaded, m)
		case m.Free > 0:
			available = append(available, m)
		}
	}

	sort.SliceStable(overloaded, func(i, j int) bool {
		return overloaded[i].AssignedCount-overloaded[i].Capacity > overloaded[j].AssignedCount-overloaded[j].Capacity
	})
	sort.SliceStable(available, func(i, j int) bool {
		return available[i].Free > available[j].Free
	})

	if len(overloaded) == 0 {
		return nil, models.ReasonNoOverloaded, nil
	}
	if len(available) == 0 {
		return nil, models.ReasonNoCapacity, nil
	}

	var moves []models.PlannedMove
	for _, over := range overloaded {
		if len(available) == 0 {
			break
		}

		excess := over.AssignedCount - over.Capacity
		if excess <= 0 {
			continue
		}

		tasks, err := fetch(over.MemberID, excess)
		if err != nil {
			return nil, models.ReasonNone, fmt.Errorf("failed to fetch pending tasks for member %s: %w", over.MemberID.Hex(), err)
		}

		for _, task := range tasks {
			if len(available) == 0 {
				break
			}
			if maxMoves > 0 && len(moves) >= maxMoves {
				return moves, models.ReasonNone, nil
			}

			receiver := &available[0]
			moves = append(moves, models.PlannedMove{Task: task, From: over, To: *receiver})

			receiver.Free--
			receiver.AssignedCount++
			if receiver.Free <= 0 {
				available = available[1:]
			}
		}
	}

	return moves, models.ReasonNone, nil
}
