package hos

// Duty-status values reported by the fleet HOS clocks endpoint.
const (
	StatusOffDuty            = "offDuty"
	StatusSleeperBed         = "sleeperBed"
	StatusDriving            = "driving"
	StatusOnDuty             = "onDuty"
	StatusYardMove           = "yardMove"
	StatusPersonalConveyance = "personalConveyance"
)

// Driver identifies the driver a clock belongs to.
type Driver struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DutyStatus is a driver's current duty status and when it began.
// StartTime stays a raw string here: the API can omit or mangle it, and the
// analyzer owns the decision of how to degrade on a bad value.
type DutyStatus struct {
	Type      string `json:"hosStatusType"`
	StartTime string `json:"hosStatusStartTime"`
}

// Clock is one duty-status record from the current API snapshot.
type Clock struct {
	Driver            Driver     `json:"driver"`
	CurrentDutyStatus DutyStatus `json:"currentDutyStatus"`
}

// Filters narrows which drivers a fetch covers. Empty filters mean the whole
// fleet.
type Filters struct {
	DriverIDs []string
	TagIDs    []string
}
