package models

// Region is one of the Moscow administrative districts, identified by its short code.
type Region string

const (
	RegionCAO   Region = "CAO"
	RegionSAO   Region = "SAO"
	RegionSVAO  Region = "SVAO"
	RegionVAO   Region = "VAO"
	RegionYUVAO Region = "YUVAO"
	RegionYUAO  Region = "YUAO"
	RegionYUZAO Region = "YUZAO"
	RegionZAO   Region = "ZAO"
	RegionSZAO  Region = "SZAO"
	RegionZELAO Region = "ZELAO"
)

// Regions lists every district in menu order.
var Regions = []Region{
	RegionCAO,
	RegionSAO,
	RegionSVAO,
	RegionVAO,
	RegionYUVAO,
	RegionYUAO,
	RegionYUZAO,
	RegionZAO,
	RegionSZAO,
	RegionZELAO,
}

func (r Region) Valid() bool {
	for _, known := range Regions {
		if r == known {
			return true
		}
	}
	return false
}
