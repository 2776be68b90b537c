package planner

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// DefaultRoomType is used when the caller omits room_type.
	DefaultRoomType = "Standard"

	romanticMood = "romantic"
)

// PlanRequest carries the caller's date preferences after defaults are applied.
type PlanRequest struct {
	Mood       string
	Activities []string
	City       string
	Meals      []string
	MealTimes  map[string]string
	WantRoom   bool
	RoomType   string
	RoomTiming string
}

// PlanRequestBody is the JSON shape of a plan request. Required fields are
// pointers so "required" only demands presence: an empty string is accepted,
// a missing or null field is not.
//
// Optional fields and their defaults:
//   - meal_times: nil, rendered as an empty string
//   - want_room:  false
//   - room_type:  "Standard"
type PlanRequestBody struct {
	Mood       *string           `json:"mood" binding:"required"`
	Activities []string          `json:"activities" binding:"required"`
	City       *string           `json:"city" binding:"required"`
	Meals      []string          `json:"meals" binding:"required"`
	MealTimes  map[string]string `json:"meal_times"`
	WantRoom   *bool             `json:"want_room"`
	RoomType   *string           `json:"room_type"`
	RoomTiming *string           `json:"room_timing" binding:"required"`
}

// PlanRequest fills the defaults. Call it after the body passed validation.
func (b PlanRequestBody) PlanRequest() PlanRequest {
	req := PlanRequest{
		Activities: b.Activities,
		Meals:      b.Meals,
		MealTimes:  b.MealTimes,
		RoomType:   DefaultRoomType,
	}
	if b.Mood != nil {
		req.Mood = *b.Mood
	}
	if b.City != nil {
		req.City = *b.City
	}
	if b.RoomTiming != nil {
		req.RoomTiming = *b.RoomTiming
	}
	if b.WantRoom != nil {
		req.WantRoom = *b.WantRoom
	}
	if b.RoomType != nil {
		req.RoomType = *b.RoomType
	}
	return req
}

// NormalizedRequest holds the strings interpolated into the prompt.
type NormalizedRequest struct {
	City       string
	Mood       string
	Activities string
	Meals      string
	MealTimes  string
	RoomClause string
	RoomTiming string
}

// Normalize derives the prompt strings from a request. It never fails.
func Normalize(req PlanRequest) NormalizedRequest {
	return NormalizedRequest{
		City:       req.City,
		Mood:       req.Mood,
		Activities: strings.Join(req.Activities, ", "),
		Meals:      strings.Join(req.Meals, ", "),
		MealTimes:  joinMealTimes(req.MealTimes),
		RoomClause: roomClause(req),
		RoomTiming: req.RoomTiming,
	}
}

// joinMealTimes renders "meal: time" pairs. Keys are sorted so the same
// request always produces the same prompt.
func joinMealTimes(mealTimes map[string]string) string {
	if len(mealTimes) == 0 {
		return ""
	}
	meals := make([]string, 0, len(mealTimes))
	for meal := range mealTimes {
		meals = append(meals, meal)
	}
	sort.Strings(meals)

	pairs := make([]string, 0, len(meals))
	for _, meal := range meals {
		pairs = append(pairs, fmt.Sprintf("%s: %s", meal, mealTimes[meal]))
	}
	return strings.Join(pairs, ", ")
}

// roomClause is only set for romantic dates that asked for a room.
func roomClause(req PlanRequest) string {
	if !strings.EqualFold(req.Mood, romanticMood) || !req.WantRoom {
		return ""
	}
	return fmt.Sprintf("Include a %s room for the night.", req.RoomType)
}
