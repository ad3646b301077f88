// Package telemetry defines simulated device telemetry domain.
package telemetry

// Constant values of a fault event.
const (
	AssetPath      = `Campus\Bldg\Device\Sensor\AssetName`
	FaultName      = "FSCFault"
	MessageSource  = "ICONICS FDD"
	FaultCostValue = "FaultCostNumeric"
)

// FaultEvent is a fault notification reported by a simulated device.
type FaultEvent struct {
	MessageID       string `json:"messageId"`
	AssetName       string `json:"AssetName"`
	AssetPath       string `json:"AssetPath"`
	FaultName       string `json:"FaultName"`
	FaultActiveTime string `json:"FaultActiveTime"`
	MessageSource   string `json:"MessageSource"`
	FaultCostValue  string `json:"FaultCostValue"`
}
