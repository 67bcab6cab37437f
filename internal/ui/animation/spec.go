package animation

import "time"

// Config defines a pulse: alpha falls from MaxAlpha to MinAlpha and climbs
// back once per Period, in Steps increments each way.
type Config struct {
	Period   time.Duration
	Steps    int
	MinAlpha uint8
	MaxAlpha uint8
}

// AlphaAt returns the alpha of a frame in the 2*Steps frame cycle.
func (config Config) AlphaAt(frame int) uint8 {
	steps := config.steps()
	cycle := 2 * steps
	frame %= cycle
	if frame < 0 {
		frame += cycle
	}
	position := frame
	if frame > steps {
		position = cycle - frame
	}
	span := int(config.MaxAlpha) - int(config.MinAlpha)
	return uint8(int(config.MaxAlpha) - span*position/steps)
}

// FrameDuration is the time a single frame is shown.
func (config Config) FrameDuration() time.Duration {
	frame := config.Period / time.Duration(2*config.steps())
	if frame <= 0 {
		return time.Millisecond
	}
	return frame
}

func (config Config) steps() int {
	if config.Steps < 1 {
		return 1
	}
	return config.Steps
}
