package engine

import (
	"cmp"
	"slices"

	"github.com/rshade/planetzero/internal/greenops"
)

// MaxRecommendations caps the recommendation list.
const MaxRecommendations = 5

// tip is a recommendation template; its saving is fraction × category average.
type tip struct {
	title       string
	description string
	fraction    float64
}

// categoryRule triggers a category's tips when the category is dominant or its
// average daily emissions exceed threshold kg.
type categoryRule struct {
	category  greenops.Category
	threshold float64
	tips      []tip
}

//nolint:gochecknoglobals // Static rule table.
var recommendationRules = []categoryRule{
	{
		category:  greenops.CategoryTransportation,
		threshold: 10,
		tips: []tip{
			{"Switch to Public Transport", "Use buses or trains instead of private vehicles. Public transport can reduce your carbon footprint by up to 45% per km.", 0.45},
			{"Carpool or Bike", "Share rides with colleagues or use a bicycle for short distances. Carpooling can cut emissions by 50%.", 0.50},
			{"Work from Home", "If possible, work remotely 1-2 days a week to reduce commute emissions significantly.", 0.30},
		},
	},
	{
		category:  greenops.CategoryElectricity,
		threshold: 8,
		tips: []tip{
			{"Optimize AC Usage", "Set AC to 24°C instead of 18°C and use fans. This can reduce electricity consumption by 30-40%.", 0.35},
			{"LED Lighting", "Replace all bulbs with LED lights. LEDs use 75% less energy than traditional bulbs.", 0.15},
			{"Unplug Devices", "Unplug chargers and devices when not in use. Phantom power can account for 10% of electricity bills.", 0.10},
			{"Energy-Efficient Appliances", "Use 5-star rated appliances and maintain them regularly for optimal efficiency.", 0.20},
		},
	},
	{
		category:  greenops.CategoryFood,
		threshold: 15,
		tips: []tip{
			{"Adopt Plant-Based Meals", "Try Meatless Mondays or replace 2-3 non-veg meals per week with vegetarian options. Can reduce food emissions by 60%.", 0.60},
			{"Choose Local and Seasonal", "Buy locally grown, seasonal produce to reduce transportation and storage emissions.", 0.25},
			{"Reduce Food Waste", "Plan meals, store food properly, and compost scraps. Food waste contributes 8% of global emissions.", 0.15},
		},
	},
	{
		category:  greenops.CategoryLifestyle,
		threshold: 20,
		tips: []tip{
			{"Buy Second-Hand", "Purchase pre-owned clothing and electronics. Manufacturing new items has high carbon costs.", 0.70},
			{"Repair Before Replace", "Repair broken items instead of buying new ones. Extends product life and reduces waste.", 0.50},
			{"Minimalist Approach", "Practice mindful consumption. Ask 'Do I really need this?' before every purchase.", 0.40},
		},
	},
}

//nolint:gochecknoglobals // Static fallback advice.
var generalTips = []tip{
	{"Great Job!", "You're already maintaining a low carbon footprint. Keep up the good work!", 0},
	{"Spread Awareness", "Share your eco-friendly habits with friends and family to multiply your impact.", 0},
	{"Track Consistently", "Continue logging daily to maintain your sustainable lifestyle and identify areas for improvement.", 0},
}

// Recommend selects up to MaxRecommendations suggestions for the given
// per-category averages. A category contributes its tips when it is dominant
// or above its threshold. When nothing triggers, the three general tips are
// returned with zero savings. Results are ordered with the dominant category
// first, then by savings descending; equal keys keep rule order.
func Recommend(avg CategoryAverages, dominant greenops.Category) []Recommendation {
	var recs []Recommendation
	for _, rule := range recommendationRules {
		value := avg.Get(rule.category)
		if rule.category != dominant && value <= rule.threshold {
			continue
		}
		for _, t := range rule.tips {
			recs = append(recs, Recommendation{
				Category:           rule.category,
				Title:              t.title,
				Description:        t.description,
				PotentialSavingsKg: greenops.Round2(value * t.fraction),
			})
		}
	}

	if len(recs) == 0 {
		for _, t := range generalTips {
			recs = append(recs, Recommendation{
				Category:    greenops.CategoryGeneral,
				Title:       t.title,
				Description: t.description,
			})
		}
	}

	slices.SortStableFunc(recs, func(a, b Recommendation) int {
		aDom, bDom := a.Category == dominant, b.Category == dominant
		if aDom != bDom {
			if aDom {
				return -1
			}
			return 1
		}
		return cmp.Compare(b.PotentialSavingsKg, a.PotentialSavingsKg)
	})

	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	return recs
}

// TotalSavings sums the savings of recs, rounded to 2 decimals.
func TotalSavings(recs []Recommendation) float64 {
	var total float64
	for _, r := range recs {
		total += r.PotentialSavingsKg
	}
	return greenops.Round2(total)
}
