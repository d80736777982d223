package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz int `yaml:"tick_rate_hz"`

	Tank       Tank       `yaml:"tank"`
	Avatar     Avatar     `yaml:"avatar"`
	Camera     Camera     `yaml:"camera"`
	Autopilot  Autopilot  `yaml:"autopilot"`
	Flock      Flock      `yaml:"flock"`
	Selection  Selection  `yaml:"selection"`
	Scroller   Scroller   `yaml:"scroller"`
	Layout     Layout     `yaml:"layout"`
	Assets     Assets     `yaml:"assets"`
	RateLimits RateLimits `yaml:"rate_limits"`
}

// Tank bounds are half-extents: x and z are clamped to [-width, +width],
// y to [floor_y, ceiling_y].
type Tank struct {
	Width    float64 `yaml:"width"`
	FloorY   float64 `yaml:"floor_y"`
	CeilingY float64 `yaml:"ceiling_y"`
}

type Avatar struct {
	Friction      float64 `yaml:"friction"`
	SwimAccel     float64 `yaml:"swim_accel"`
	VerticalSpeed float64 `yaml:"vertical_speed"`
	DashForce     float64 `yaml:"dash_force"`
	DashCooldownS float64 `yaml:"dash_cooldown_s"`
	SteerYawGain  float64 `yaml:"steer_yaw_gain"`
	DriftYawGain  float64 `yaml:"drift_yaw_gain"`
	DriftSpeedMin float64 `yaml:"drift_speed_min"`
	SpawnY        float64 `yaml:"spawn_y"`
}

type Camera struct {
	Offset     [3]float64 `yaml:"offset"`
	LookHeight float64    `yaml:"look_height"`
	Blend      float64    `yaml:"blend"`
}

type Autopilot struct {
	IdleTimeoutMs  int     `yaml:"idle_timeout_ms"`
	RealignEveryMs int     `yaml:"realign_every_ms"`
	WanderSpeed    float64 `yaml:"wander_speed"`
	ArriveDist     float64 `yaml:"arrive_dist"`
	MinTargetDist  float64 `yaml:"min_target_dist"`
	MaxTargetDist  float64 `yaml:"max_target_dist"`
	YawGain        float64 `yaml:"yaw_gain"`
	VerticalGain   float64 `yaml:"vertical_gain"`
	AnimIdleRate   float64 `yaml:"anim_idle_rate"`
}

type Flock struct {
	Count            int     `yaml:"count"`
	Speed            float64 `yaml:"speed"`
	MaxForce         float64 `yaml:"max_force"`
	SeparationRadius float64 `yaml:"separation_radius"`
	MinSeparation    float64 `yaml:"min_separation"`
	ArriveDist       float64 `yaml:"arrive_dist"`
	SpawnRadius      float64 `yaml:"spawn_radius"`
	FaceSpeedMin     float64 `yaml:"face_speed_min"`
	YawGain          float64 `yaml:"yaw_gain"`
}

type Selection struct {
	Distance        float64 `yaml:"distance"`
	BelowCutoff     float64 `yaml:"below_cutoff"`
	PulseHz         float64 `yaml:"pulse_hz"`
	PulseOpacityLo  float64 `yaml:"pulse_opacity_lo"`
	PulseOpacityAmp float64 `yaml:"pulse_opacity_amp"`
	PulseScaleAmp   float64 `yaml:"pulse_scale_amp"`
}

type Scroller struct {
	MoveSpeed       float64    `yaml:"move_speed"`
	JumpImpulse     float64    `yaml:"jump_impulse"`
	Gravity         float64    `yaml:"gravity"`
	MaxJumps        int        `yaml:"max_jumps"`
	GroundY         float64    `yaml:"ground_y"`
	SnapTolerance   float64    `yaml:"snap_tolerance"`
	PlayerHalfWidth float64    `yaml:"player_half_width"`
	Spawn           [2]float64 `yaml:"spawn"`
	PlatformSpacing float64    `yaml:"platform_spacing"`
	PlatformWidth   float64    `yaml:"platform_width"`
	CamBlendX       float64    `yaml:"cam_blend_x"`
	CamBlendY       float64    `yaml:"cam_blend_y"`
	CamOffsetY      float64    `yaml:"cam_offset_y"`
	MinCamY         float64    `yaml:"min_cam_y"`
}

type Layout struct {
	RingFrac      float64 `yaml:"ring_frac"`
	ClusterSpread float64 `yaml:"cluster_spread"`
	MinHeight     float64 `yaml:"min_height"`
	MaxHeight     float64 `yaml:"max_height"`
	MaxDepth      int     `yaml:"max_depth"`
}

type Assets struct {
	AvatarModel  string `yaml:"avatar_model"`
	AgentModel   string `yaml:"agent_model"`
	LoadTimeoutS int    `yaml:"load_timeout_s"`
}

type RateLimits struct {
	CmdWindowTicks int `yaml:"cmd_window_ticks"`
	CmdMax         int `yaml:"cmd_max"`
}

// Default returns the shipped tuning. Load layers a yaml file on top of it,
// so a partial file only overrides what it names.
func Default() Tuning {
	return Tuning{
		TickRateHz: 30,
		Tank:       Tank{Width: 45, FloorY: 0.5, CeilingY: 30},
		Avatar: Avatar{
			Friction:      4.0,
			SwimAccel:     8.0,
			VerticalSpeed: 9.0,
			DashForce:     9.0,
			DashCooldownS: 0.5,
			SteerYawGain:  8.0,
			DriftYawGain:  2.0,
			DriftSpeedMin: 0.3,
			SpawnY:        8.0,
		},
		Camera: Camera{
			Offset:     [3]float64{0, 4.5, -10.5},
			LookHeight: 1.8,
			Blend:      0.1,
		},
		Autopilot: Autopilot{
			IdleTimeoutMs:  5000,
			RealignEveryMs: 8000,
			WanderSpeed:    4.0,
			ArriveDist:     5.0,
			MinTargetDist:  8.0,
			MaxTargetDist:  50.0,
			YawGain:        2.5,
			VerticalGain:   0.5,
			AnimIdleRate:   0.5,
		},
		Flock: Flock{
			Count:            6,
			Speed:            6.0,
			MaxForce:         12.0,
			SeparationRadius: 4.0,
			MinSeparation:    1.5,
			ArriveDist:       5.0,
			SpawnRadius:      3.0,
			FaceSpeedMin:     0.2,
			YawGain:          6.0,
		},
		Selection: Selection{
			Distance:        26.0,
			BelowCutoff:     2.0,
			PulseHz:         1.6,
			PulseOpacityLo:  0.55,
			PulseOpacityAmp: 0.25,
			PulseScaleAmp:   0.08,
		},
		Scroller: Scroller{
			MoveSpeed:       8.0,
			JumpImpulse:     13.0,
			Gravity:         30.0,
			MaxJumps:        2,
			GroundY:         0.0,
			SnapTolerance:   0.35,
			PlayerHalfWidth: 0.45,
			Spawn:           [2]float64{-8, 0},
			PlatformSpacing: 4.2,
			PlatformWidth:   3.0,
			CamBlendX:       0.18,
			CamBlendY:       0.12,
			CamOffsetY:      2.5,
			MinCamY:         3.0,
		},
		Layout: Layout{
			RingFrac:      0.55,
			ClusterSpread: 10.0,
			MinHeight:     3.0,
			MaxHeight:     18.0,
			MaxDepth:      1,
		},
		Assets: Assets{
			AvatarModel:  "frog",
			AgentModel:   "frog_small",
			LoadTimeoutS: 6,
		},
		RateLimits: RateLimits{CmdWindowTicks: 30, CmdMax: 10},
	}
}

func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be positive, got %d", t.TickRateHz)
	}
	if t.Tank.Width <= 0 {
		return fmt.Errorf("tank.width must be positive, got %v", t.Tank.Width)
	}
	if t.Tank.CeilingY <= t.Tank.FloorY {
		return fmt.Errorf("tank.ceiling_y %v must be above tank.floor_y %v", t.Tank.CeilingY, t.Tank.FloorY)
	}
	if t.Flock.MinSeparation >= t.Flock.SeparationRadius {
		return fmt.Errorf("flock.min_separation %v must be below flock.separation_radius %v",
			t.Flock.MinSeparation, t.Flock.SeparationRadius)
	}
	if t.Flock.Count < 0 {
		return fmt.Errorf("flock.count must not be negative, got %d", t.Flock.Count)
	}
	if t.Scroller.MaxJumps < 1 {
		return fmt.Errorf("scroller.max_jumps must be at least 1, got %d", t.Scroller.MaxJumps)
	}
	if t.Autopilot.IdleTimeoutMs <= 0 || t.Autopilot.RealignEveryMs <= 0 {
		return fmt.Errorf("autopilot timers must be positive")
	}
	if t.Selection.Distance <= 0 {
		return fmt.Errorf("selection.distance must be positive, got %v", t.Selection.Distance)
	}
	return nil
}
