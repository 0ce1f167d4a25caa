package domain

type factorKey struct {
	factor Factor
	status FactorStatus
}

const strongMatchRecommendation = "Strong match on every factor, consider proposing a swap"

var recommendationTemplates = map[factorKey]string{
	{FactorLocation, FactorStatusFair}:      "Check that the destination suits your travel plans",
	{FactorLocation, FactorStatusPoor}:      "Look for offers closer to your preferred destination",
	{FactorDate, FactorStatusFair}:          "Ask the owner whether the dates are flexible",
	{FactorDate, FactorStatusPoor}:          "Search for offers with overlapping dates",
	{FactorValue, FactorStatusFair}:         "Consider adding cash to balance the value gap",
	{FactorValue, FactorStatusPoor}:         "Look for offers of a similar value",
	{FactorAccommodation, FactorStatusFair}: "Review the accommodation details before proposing",
	{FactorAccommodation, FactorStatusPoor}: "Look for offers with a similar accommodation type and rating",
	{FactorGuests, FactorStatusFair}:        "Confirm the accommodation fits your group",
	{FactorGuests, FactorStatusPoor}:        "Look for offers sized for your group",
}

var issueTemplates = map[factorKey]string{
	{FactorLocation, FactorStatusFair}:      "Locations are moderately far apart",
	{FactorLocation, FactorStatusPoor}:      "Locations are far apart",
	{FactorDate, FactorStatusFair}:          "Stay dates only partially overlap",
	{FactorDate, FactorStatusPoor}:          "Stay dates do not overlap",
	{FactorValue, FactorStatusFair}:         "Booking values differ noticeably",
	{FactorValue, FactorStatusPoor}:         "Booking values differ significantly",
	{FactorAccommodation, FactorStatusFair}: "Accommodations differ in type or quality",
	{FactorAccommodation, FactorStatusPoor}: "Accommodations differ in both type and quality",
	{FactorGuests, FactorStatusFair}:        "Guest capacities differ",
	{FactorGuests, FactorStatusPoor}:        "Guest capacities differ significantly",
}
