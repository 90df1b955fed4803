package enums

// StockStatus classifies an inventory balance against its thresholds.
type StockStatus string

const (
	StockStatusNormal   StockStatus = "normal"
	StockStatusWarning  StockStatus = "warning"
	StockStatusCritical StockStatus = "critical"
)

// String implements fmt.Stringer.
func (s StockStatus) String() string {
	return string(s)
}
