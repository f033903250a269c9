package convert

// Cycle hands out a track's channels in rotation. Each track owns its own
// Cycle for the length of one Encode call.
type Cycle struct {
	channels []uint8
	next     int
}

func NewCycle(channels []uint8) Cycle {
	return Cycle{channels: channels}
}

// Next returns the next channel, wrapping around.
func (c *Cycle) Next() uint8 {
	ch := c.channels[c.next]
	c.next = (c.next + 1) % len(c.channels)
	return ch
}

// Len is the number of channels in the cycle.
func (c Cycle) Len() int { return len(c.channels) }

// Channels returns the channels in rotation order.
func (c Cycle) Channels() []uint8 { return c.channels }

// AllocateChannels assigns a channel group to each of n tracks. Without
// distribution every track gets the whole pool. With distribution a single
// rotation over the pool hands each track the next perTrack channels, so
// groups wrap around when the pool runs out.
func AllocateChannels(n int, pool []uint8, distribute bool, perTrack int) [][]uint8 {
	groups := make([][]uint8, n)
	if !distribute {
		for i := range groups {
			groups[i] = pool
		}
		return groups
	}

	rot := NewCycle(pool)
	for i := range groups {
		g := make([]uint8, perTrack)
		for j := range g {
			g[j] = rot.Next()
		}
		groups[i] = g
	}
	return groups
}
