// AngelaMos | 2026
// entitlement.go

package entitlement

const (
	TierAnonymous = "anonymous"
	TierFree      = "free"
	TierPremium   = "premium"
)

type Quality string

const (
	QualityLow  Quality = "low"
	QualityHigh Quality = "high"
)

// ParseQuality maps anything other than "high" to low resolution.
func ParseQuality(s string) Quality {
	if Quality(s) == QualityHigh {
		return QualityHigh
	}
	return QualityLow
}

// Caller identifies who is asking. A zero UserID is an anonymous visitor.
type Caller struct {
	UserID int64
}

func Anonymous() Caller {
	return Caller{}
}

func (c Caller) IsAnonymous() bool {
	return c.UserID <= 0
}

// Grant is the resolved set of permissions for one caller.
type Grant struct {
	UserID          int64  `json:"user_id,omitempty"`
	Tier            string `json:"tier"`
	Authenticated   bool   `json:"authenticated"`
	CanView         bool   `json:"can_view"`
	CanDownloadLow  bool   `json:"can_download_low"`
	CanDownloadHigh bool   `json:"can_download_high"`
	PremiumFeatures bool   `json:"premium_features"`
}

func (g Grant) CanDownload(q Quality) bool {
	if q == QualityHigh {
		return g.CanDownloadHigh
	}
	return g.CanDownloadLow
}

func anonymousGrant() Grant {
	return Grant{
		Tier:    TierAnonymous,
		CanView: true,
	}
}

func grantFor(userID int64, tier string) Grant {
	g := Grant{
		UserID:         userID,
		Tier:           TierFree,
		Authenticated:  true,
		CanView:        true,
		CanDownloadLow: true,
	}

	if tier == TierPremium {
		g.Tier = TierPremium
		g.CanDownloadHigh = true
		g.PremiumFeatures = true
	}

	return g
}
