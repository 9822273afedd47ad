package availability

import "github.com/BruksfildServices01/barber-booking/internal/models"

// ResyncPlan is what a template edit does to slots already generated for that weekday.
type ResyncPlan struct {
	MakeAvailable []string
	Withdraw      []string
	// Booked slots whose time was removed from the template; they stay available.
	Overridden []models.Slot
	// Times added to the template, per already generated date.
	Missing map[string][]int
}

func PlanResync(existing []models.Slot, startTimes []int) ResyncPlan {
	wanted := make(map[int]bool, len(startTimes))
	for _, t := range startTimes {
		wanted[t] = true
	}

	plan := ResyncPlan{Missing: map[string][]int{}}
	seen := map[string]map[int]bool{}

	for _, s := range existing {
		if seen[s.Date] == nil {
			seen[s.Date] = map[int]bool{}
		}
		seen[s.Date][s.StartTime] = true

		switch {
		case wanted[s.StartTime]:
			if !s.Available {
				plan.MakeAvailable = append(plan.MakeAvailable, s.ID)
			}
		case s.Booked:
			plan.Overridden = append(plan.Overridden, s)
		case s.Available:
			plan.Withdraw = append(plan.Withdraw, s.ID)
		}
	}

	for date, times := range seen {
		for _, t := range startTimes {
			if !times[t] {
				plan.Missing[date] = append(plan.Missing[date], t)
			}
		}
	}

	return plan
}
