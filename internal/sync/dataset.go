package sync

import "fmt"

const (
	// DatasetCampaign holds one row of counters per campaign and day.
	DatasetCampaign Dataset = iota

	// DatasetLink holds one row per campaign and clicked link.
	DatasetLink

	// DatasetUserAgent holds one row per campaign, platform and user agent.
	DatasetUserAgent

	// DatasetRegion holds one row per campaign and country.
	DatasetRegion
)

// Datasets lists every dataset in write order.
var Datasets = []Dataset{DatasetCampaign, DatasetLink, DatasetUserAgent, DatasetRegion}

var (
	campaignHeaders = []any{
		"date",
		"nom de la campagne",
		"nombre d'envoi",
		"nombre de mail bloqués",
		"nombre erreur temporaire",
		"nombre erreur permanente",
		"nombre mails ouverts",
		"nombre total d'ouverture",
		"nombre de clics des msg délivrés",
		"nombre de mail cliqués",
		"nombre total de click",
		"nombre de désabonnements",
		"nombre de spam",
		"délai d'ouverture moyen (en sec)",
		"délai de clics moyens (en sec)",
	}
	linkHeaders = []any{
		"nom de la campagne",
		"URL",
		"nombre de mail cliqués",
		"nombre total de click",
		"position de l'URL link dans le contenu HTML",
	}
	regionHeaders = []any{
		"nom de la campagne",
		"pays",
		"nombre de mail cliqués",
		"nombre de mail ouvert",
	}
	userAgentHeaders = []any{
		"nom de la campagne",
		"plateforme",
		"user agent description",
		"nombre de mail cliqués",
		"nombre total de click",
	}
)

// Dataset is one of the four destination sheets.
type Dataset int

// Sheet returns the sheet title of the dataset.
func (d Dataset) Sheet(prefix string) string {
	return prefix + "-" + d.String()
}

func (d Dataset) String() string {
	switch d {
	case DatasetCampaign:
		return "campaign"
	case DatasetLink:
		return "link"
	case DatasetUserAgent:
		return "user_agent"
	case DatasetRegion:
		return "region"
	default:
		return fmt.Sprintf("dataset(%d)", int(d))
	}
}

// headers returns the header row.
func (d Dataset) headers() []any {
	switch d {
	case DatasetCampaign:
		return campaignHeaders
	case DatasetLink:
		return linkHeaders
	case DatasetUserAgent:
		return userAgentHeaders
	case DatasetRegion:
		return regionHeaders
	default:
		return nil
	}
}

// keyColumn returns the last column of the natural key.
func (d Dataset) keyColumn() string {
	switch d {
	case DatasetLink, DatasetRegion:
		return "B"
	case DatasetUserAgent:
		return "C"
	default:
		return "A"
	}
}
