package types

// AssetType is a canonical asset classification as produced by the discovery classifier
type AssetType string

const (
	AssetWorkstation AssetType = "workstation"
	AssetServer      AssetType = "server"
	AssetPrinter     AssetType = "printer"
	AssetRouter      AssetType = "router"
	AssetSwitch      AssetType = "switch"
	AssetFirewall    AssetType = "firewall"
	AssetAccessPoint AssetType = "access_point"
	AssetNAS         AssetType = "nas"
	AssetPhone       AssetType = "phone"
	AssetIoT         AssetType = "iot"
	AssetCamera      AssetType = "camera"
	AssetUnknown     AssetType = "unknown"
)

// AssetTypes lists every canonical asset type
var AssetTypes = []AssetType{
	AssetWorkstation,
	AssetServer,
	AssetPrinter,
	AssetRouter,
	AssetSwitch,
	AssetFirewall,
	AssetAccessPoint,
	AssetNAS,
	AssetPhone,
	AssetIoT,
	AssetCamera,
	AssetUnknown,
}

// Valid reports whether t is a canonical asset type
func (t AssetType) Valid() bool {
	for _, v := range AssetTypes {
		if v == t {
			return true
		}
	}
	return false
}
