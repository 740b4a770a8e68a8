package engine

import (
	"fmt"
	"strings"

	"github.com/amolgorithm/delivery-deluxe/game/citymap"
)

// EconomyRules configures money, fuel and fines.
type EconomyRules struct {
	StartingMoney     float64 `json:"starting_money" yaml:"starting_money"`
	StartingFuel      float64 `json:"starting_fuel" yaml:"starting_fuel"`
	MaxFuel           float64 `json:"max_fuel" yaml:"max_fuel"`
	FullTankCost      float64 `json:"full_tank_cost" yaml:"full_tank_cost"`
	SpeedingGrace     float64 `json:"speeding_grace" yaml:"speeding_grace"`
	SpeedingFine      float64 `json:"speeding_fine" yaml:"speeding_fine"`
	CollisionFine     float64 `json:"collision_fine" yaml:"collision_fine"`
	CollisionCooldown float64 `json:"collision_cooldown" yaml:"collision_cooldown"`
	IdleFuelFactor    float64 `json:"idle_fuel_factor" yaml:"idle_fuel_factor"`
	AutopilotCost     float64 `json:"autopilot_cost" yaml:"autopilot_cost"`
}

// DeliveryRules configures mission timing, rewards and the win/loss tallies.
type DeliveryRules struct {
	Rewards         []float64 `json:"rewards" yaml:"rewards"`
	BaseTime        float64   `json:"base_time" yaml:"base_time"`
	DistanceTime    float64   `json:"distance_time" yaml:"distance_time"`
	RatingWindow    float64   `json:"rating_window" yaml:"rating_window"`
	MaxRating       float64   `json:"max_rating" yaml:"max_rating"`
	DeliveriesToWin int       `json:"deliveries_to_win" yaml:"deliveries_to_win"`
	MaxFailures     int       `json:"max_failures" yaml:"max_failures"`
}

// VehicleModel is one car in the garage.
type VehicleModel struct {
	Name            string  `json:"name" yaml:"name"`
	Tier            string  `json:"tier" yaml:"tier"`
	Mass            float64 `json:"mass" yaml:"mass"`
	Acceleration    float64 `json:"acceleration" yaml:"acceleration"`
	Handling        float64 `json:"handling" yaml:"handling"`
	FuelConsumption float64 `json:"fuel_consumption" yaml:"fuel_consumption"`
}

// Messages holds the warning and end-screen texts. Templates take fmt verbs
// as documented per field.
type Messages struct {
	Welcome         string `json:"welcome" yaml:"welcome"`
	Overspeeding    string `json:"overspeeding" yaml:"overspeeding"`         // %.0f fine
	PedestrianHit   string `json:"pedestrian_hit" yaml:"pedestrian_hit"`     // %.0f fine
	DeliverySuccess string `json:"delivery_success" yaml:"delivery_success"` // %.0f reward, %.1f rating
	WrongLocation   string `json:"wrong_location" yaml:"wrong_location"`
	Refueled        string `json:"refueled" yaml:"refueled"` // %.2f spent
	DeliveryFailed  string `json:"delivery_failed" yaml:"delivery_failed"`
	AutopilotOn     string `json:"autopilot_on" yaml:"autopilot_on"` // %.0f cost
	AutopilotOff    string `json:"autopilot_off" yaml:"autopilot_off"`
	OutOfFuel       string `json:"out_of_fuel" yaml:"out_of_fuel"`
	TooManyFailures string `json:"too_many_failures" yaml:"too_many_failures"`
	Bankrupt        string `json:"bankrupt" yaml:"bankrupt"`
	Victory         string `json:"victory" yaml:"victory"`
}

// WarningDurations are display times in seconds for each transient warning.
type WarningDurations struct {
	Overspeeding    float64 `json:"overspeeding" yaml:"overspeeding"`
	PedestrianHit   float64 `json:"pedestrian_hit" yaml:"pedestrian_hit"`
	DeliverySuccess float64 `json:"delivery_success" yaml:"delivery_success"`
	WrongLocation   float64 `json:"wrong_location" yaml:"wrong_location"`
	Refueled        float64 `json:"refueled" yaml:"refueled"`
	DeliveryFailed  float64 `json:"delivery_failed" yaml:"delivery_failed"`
	Autopilot       float64 `json:"autopilot" yaml:"autopilot"`
}

// GameConfig describes a city and the rules played on it.
type GameConfig struct {
	Name              string                `json:"name" yaml:"name"`
	Description       string                `json:"description" yaml:"description"`
	Rows              int                   `json:"rows" yaml:"rows"`
	Cols              int                   `json:"cols" yaml:"cols"`
	DeliveryLocations int                   `json:"delivery_locations" yaml:"delivery_locations"`
	RoadTypes         citymap.RoadTypeTable `json:"road_types" yaml:"road_types"`
	// Seed fixes map generation and mission draws. Zero picks a random seed.
	Seed     uint64           `json:"seed,omitempty" yaml:"seed,omitempty"`
	Economy  EconomyRules     `json:"economy" yaml:"economy"`
	Delivery DeliveryRules    `json:"delivery" yaml:"delivery"`
	Vehicles []VehicleModel   `json:"vehicles" yaml:"vehicles"`
	Warnings WarningDurations `json:"warnings" yaml:"warnings"`
	Messages Messages         `json:"messages" yaml:"messages"`
}

// DefaultVehicles returns the stock garage.
func DefaultVehicles() []VehicleModel {
	return []VehicleModel{
		{Name: "Porsche 992", Tier: "D", Mass: 800, Acceleration: 5.0, Handling: 0.6, FuelConsumption: 0.002},
		{Name: "Mclaren Furai", Tier: "C", Mass: 600, Acceleration: 7.0, Handling: 0.7, FuelConsumption: 0.002},
		{Name: "Mclaren Gold", Tier: "B", Mass: 800, Acceleration: 6.0, Handling: 0.8, FuelConsumption: 0.0015},
		{Name: "Mercedes AMG One", Tier: "A", Mass: 850, Acceleration: 7.0, Handling: 0.9, FuelConsumption: 0.001},
		{Name: "Corvette C9", Tier: "S", Mass: 900, Acceleration: 7.5, Handling: 0.9, FuelConsumption: 0.0007},
		{Name: "Lamborghini Aventador", Tier: "S", Mass: 850, Acceleration: 8.0, Handling: 1.0, FuelConsumption: 0.0007},
	}
}

// DefaultGameConfig returns the classic 20x20 city.
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:              "Classic",
		Description:       "20x20 city with ten delivery locations",
		Rows:              20,
		Cols:              20,
		DeliveryLocations: 10,
		RoadTypes:         citymap.DefaultRoadTypes(),
		Economy: EconomyRules{
			StartingMoney:     30,
			StartingFuel:      100,
			MaxFuel:           100,
			FullTankCost:      20,
			SpeedingGrace:     3,
			SpeedingFine:      5,
			CollisionFine:     20,
			CollisionCooldown: 3,
			IdleFuelFactor:    2,
			AutopilotCost:     40,
		},
		Delivery: DeliveryRules{
			Rewards:         []float64{20, 30, 40},
			BaseTime:        45,
			DistanceTime:    75,
			RatingWindow:    0.4,
			MaxRating:       5,
			DeliveriesToWin: 5,
			MaxFailures:     4,
		},
		Vehicles: DefaultVehicles(),
		Warnings: WarningDurations{
			Overspeeding:    3,
			PedestrianHit:   2,
			DeliverySuccess: 4,
			WrongLocation:   3,
			Refueled:        3,
			DeliveryFailed:  3,
			Autopilot:       3,
		},
		Messages: DefaultMessages(),
	}
}

// DefaultMessages returns the stock warning texts.
func DefaultMessages() Messages {
	return Messages{
		Welcome:         "Pick a car in the garage and start delivering!",
		Overspeeding:    "OVERSPEEDING! $%.0f Fine Issued",
		PedestrianHit:   "PEDESTRIAN HIT! $%.0f Fine Issued",
		DeliverySuccess: "DELIVERY SUCCESS! $%.0f earned. Customer rated you %.1f STARS",
		WrongLocation:   "WRONG LOCATION! Try Again! Customer's waiting...",
		Refueled:        "SUCCESSFULLY REFUELED! $%.2f spent. Carry on!",
		DeliveryFailed:  "DELIVERY FAILED! $0 earned. 0 STARS RATING",
		AutopilotOn:     "AUTOPILOT ENGAGED! $%.0f charged",
		AutopilotOff:    "AUTOPILOT DISENGAGED",
		OutOfFuel:       "Ran out of fuel!",
		TooManyFailures: "Too many delivery failures!",
		Bankrupt:        "You went bankrupt!",
		Victory:         "SUCCESS! All deliveries completed!",
	}
}

// ValidateGameConfig checks a configuration for playability.
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	if config.Rows < MinGridSize || config.Rows > MaxGridSize {
		return fmt.Errorf("config validation: rows must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Rows)
	}
	if config.Cols < MinGridSize || config.Cols > MaxGridSize {
		return fmt.Errorf("config validation: cols must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Cols)
	}
	if config.DeliveryLocations < 1 || config.DeliveryLocations > citymap.MaxDeliveryLocations {
		return fmt.Errorf("config validation: delivery_locations must be between 1 and %d, got %d",
			citymap.MaxDeliveryLocations, config.DeliveryLocations)
	}
	if free := config.Rows*config.Cols - citymap.FuelStopCount; config.DeliveryLocations > free {
		return fmt.Errorf("config validation: delivery_locations (%d) exceeds free cells (%d)", config.DeliveryLocations, free)
	}
	if err := config.RoadTypes.Validate(); err != nil {
		return fmt.Errorf("config validation: road_types: %w", err)
	}

	eco := config.Economy
	if eco.MaxFuel <= 0 {
		return fmt.Errorf("config validation: economy.max_fuel must be positive")
	}
	if eco.StartingFuel <= 0 || eco.StartingFuel > eco.MaxFuel {
		return fmt.Errorf("config validation: economy.starting_fuel must be in (0, %v], got %v", eco.MaxFuel, eco.StartingFuel)
	}
	if eco.StartingMoney < 0 {
		return fmt.Errorf("config validation: economy.starting_money cannot be negative")
	}
	if eco.FullTankCost <= 0 {
		return fmt.Errorf("config validation: economy.full_tank_cost must be positive")
	}
	if eco.SpeedingGrace <= 0 || eco.CollisionCooldown < 0 {
		return fmt.Errorf("config validation: economy timers must be positive")
	}
	if eco.SpeedingFine < 0 || eco.CollisionFine < 0 || eco.AutopilotCost < 0 || eco.IdleFuelFactor < 0 {
		return fmt.Errorf("config validation: economy fines and costs cannot be negative")
	}

	del := config.Delivery
	if len(del.Rewards) == 0 {
		return fmt.Errorf("config validation: delivery.rewards must not be empty")
	}
	for _, r := range del.Rewards {
		if r < 0 {
			return fmt.Errorf("config validation: delivery.rewards cannot be negative, got %v", r)
		}
	}
	if del.BaseTime <= 0 || del.DistanceTime < 0 {
		return fmt.Errorf("config validation: delivery.base_time must be positive and distance_time non-negative")
	}
	if del.RatingWindow <= 0 || del.RatingWindow > 1 {
		return fmt.Errorf("config validation: delivery.rating_window must be in (0, 1], got %v", del.RatingWindow)
	}
	if del.MaxRating <= 0 {
		return fmt.Errorf("config validation: delivery.max_rating must be positive")
	}
	if del.DeliveriesToWin < 1 {
		return fmt.Errorf("config validation: delivery.deliveries_to_win must be at least 1")
	}
	// The mission in progress already counts as unsuccessful.
	if del.MaxFailures < 2 {
		return fmt.Errorf("config validation: delivery.max_failures must be at least 2, got %d", del.MaxFailures)
	}

	if len(config.Vehicles) == 0 {
		return fmt.Errorf("config validation: at least one vehicle is required")
	}
	for i, v := range config.Vehicles {
		if v.Name == "" {
			return fmt.Errorf("config validation: vehicle %d needs a name", i)
		}
		if v.FuelConsumption < 0 {
			return fmt.Errorf("config validation: vehicle %q fuel_consumption cannot be negative", v.Name)
		}
	}

	msgs := config.Messages
	required := map[string]string{
		"out_of_fuel":       msgs.OutOfFuel,
		"too_many_failures": msgs.TooManyFailures,
		"bankrupt":          msgs.Bankrupt,
	}
	for key, value := range required {
		if value == "" {
			return fmt.Errorf("config validation: messages.%s is required", key)
		}
	}
	if msgs.DeliverySuccess != "" && strings.Count(msgs.DeliverySuccess, "%") != 2 {
		return fmt.Errorf("config validation: messages.delivery_success must take reward and rating verbs")
	}

	return nil
}

// withDefaults fills zero-valued optional sections from DefaultGameConfig.
func (c *GameConfig) withDefaults() *GameConfig {
	out := *c
	def := DefaultGameConfig()
	if out.Warnings == (WarningDurations{}) {
		out.Warnings = def.Warnings
	}
	m := &out.Messages
	d := def.Messages
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&m.Welcome, d.Welcome)
	fill(&m.Overspeeding, d.Overspeeding)
	fill(&m.PedestrianHit, d.PedestrianHit)
	fill(&m.DeliverySuccess, d.DeliverySuccess)
	fill(&m.WrongLocation, d.WrongLocation)
	fill(&m.Refueled, d.Refueled)
	fill(&m.DeliveryFailed, d.DeliveryFailed)
	fill(&m.AutopilotOn, d.AutopilotOn)
	fill(&m.AutopilotOff, d.AutopilotOff)
	fill(&m.Victory, d.Victory)
	return &out
}
