package usecase

import (
	"strings"

	"github.com/shoptalk/backend/internal/domain"
)

// Troubleshooting guide identifiers offered after a problem report.
const (
	guidePower       = "power"
	guideBattery     = "battery"
	guidePerformance = "performance"
	guideDamage      = "damage"
	guideOther       = "other"
)

// troubleshootingOptions are the selectable categories offered alongside a
// problem-report response.
func troubleshootingOptions() []domain.Option {
	return []domain.Option{
		{Label: "It won't turn on", Value: guidePower, Action: "action:" + guidePower},
		{Label: "Battery or charging issue", Value: guideBattery, Action: "action:" + guideBattery},
		{Label: "It's not working as well as it should", Value: guidePerformance, Action: "action:" + guidePerformance},
		{Label: "It's damaged", Value: guideDamage, Action: "action:" + guideDamage},
		{Label: "Something else", Value: guideOther, Action: "action:" + guideOther},
	}
}

var guideTexts = map[string]string{
	guidePower: `Let's get it powered up:
1. Check the product is plugged in and the socket works with another appliance.
2. Hold the power button for 5 seconds - some models need a long press.
3. If it has a removable cable, reseat both ends.
If none of that helps, reply with your product code (printed near the plug or on the base) and we'll take it further.`,

	guideBattery: `Battery and charging checks:
1. Charge for at least 30 minutes before trying to switch on.
2. Make sure the charging light comes on when docked - if not, try a different cable or socket.
3. Batteries degrade: if yours is over 2 years old, runtime loss is normal and a replacement may be available.
If the light never comes on, reply with your product code and we'll arrange a repair.`,

	guidePerformance: `If performance has dropped:
1. Clean any filters, vents, or blades - most performance loss is buildup.
2. Check for blockages and remove any visible debris.
3. Run the product empty for a minute after cleaning.
Still underperforming? Reply with your product code and a short description and we'll help.`,

	guideDamage: `Sorry to hear it's damaged. Products can be returned within 30 days for a full refund, and all appliances carry a 2-year warranty beyond that. Reply with your product code and a photo of the damage if you can, or contact support and we'll sort out a replacement.`,

	guideOther: `No problem - tell us a bit more about what's going wrong, and include your product code if you have it (printed on the base or near the plug). Our support team can also help directly if you'd rather talk to a person.`,
}

// hairCareCategories identifies product types with no battery: the battery
// guide is swapped for the power guide for these.
var hairCareCategories = map[string]bool{
	"hair care":  true,
	"haircare":   true,
	"hair":       true,
	"hairdryers": true,
}

// lookupGuide resolves an action selection to guide text, falling back to
// the generic guide for unrecognized categories. The product type inferred
// from the session focus adjusts battery-specific steps.
func lookupGuide(selection string, focus *domain.Product) string {
	selection = strings.ToLower(strings.TrimSpace(selection))

	if selection == guideBattery && focus != nil && hairCareCategories[strings.ToLower(focus.Category)] {
		// Mains-powered hair care products have no battery to troubleshoot.
		return guideTexts[guidePower]
	}

	if text, ok := guideTexts[selection]; ok {
		return text
	}
	return guideTexts[guideOther]
}
