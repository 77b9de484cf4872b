package model

// EnvironmentState is the shared snapshot of the rig. The control loop owns it;
// sensor drivers write their own fields during their update step and every
// other task only reads it. Numeric fields always hold the last successful
// reading, never a sentinel.
type EnvironmentState struct {
	MoisturePercent  int     `json:"moisture_percent"`
	AirTemp          float64 `json:"air_temp"`
	AirHumidity      float64 `json:"air_humidity"`
	WaterTemperature float64 `json:"water_temperature"`
	AlarmActive      bool    `json:"alarm_active"`
	WateringActive   bool    `json:"watering_active"`
}

type Outcome int

const (
	Unchanged Outcome = iota
	Updated
	FailedRead
)

func (o Outcome) String() string {
	switch o {
	case Updated:
		return "updated"
	case FailedRead:
		return "failed_read"
	default:
		return "unchanged"
	}
}

// SensorStatus is the per-driver health view, queried separately from
// EnvironmentState.
type SensorStatus struct {
	Name        string  `json:"name"`
	Healthy     bool    `json:"healthy"`
	LastOutcome Outcome `json:"last_outcome"`
}

type Command int

const (
	Unrecognized Command = iota
	StartWatering
	StopWatering
)

func (c Command) String() string {
	switch c {
	case StartWatering:
		return "start_watering"
	case StopWatering:
		return "stop_watering"
	default:
		return "unrecognized"
	}
}

type WateringState string

const (
	Idle     WateringState = "idle"
	Watering WateringState = "watering"
)

type GPIOPin struct {
	Number     int
	ActiveHigh bool
}
