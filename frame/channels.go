package frame

// ChannelAssignment specifies the number of channels (subframes) stored in a
// frame, their order, and whether inter-channel decorrelation is in use.
//
// ref: https://www.xiph.org/flac/format.html#frame_header
type ChannelAssignment uint8

// Channel assignments. The first 8 values are INDEPENDENT{n}: n channels
// stored without decorrelation, following SMPTE/ITU-R order where defined.
// The final 3 values decorrelate exactly 2 channels.
const (
	ChannelsMono           ChannelAssignment = iota // 1 channel: mono.
	ChannelsLR                                      // 2 channels: left, right.
	ChannelsLRC                                     // 3 channels: left, right, center.
	ChannelsLRLsRs                                  // 4 channels: left, right, left surround, right surround.
	ChannelsLRCLsRs                                 // 5 channels: left, right, center, left surround, right surround.
	ChannelsLRCLfeLsRs                              // 6 channels: left, right, center, LFE, left surround, right surround.
	ChannelsLRCLfeCsSlSr                            // 7 channels: left, right, center, LFE, center surround, side left, side right.
	ChannelsLRCLfeLsRsSlSr                          // 8 channels: left, right, center, LFE, left surround, right surround, side left, side right.
	ChannelsLeftSide                                // 2 channels: left, side (difference); LEFT_SIDE decorrelation.
	ChannelsSideRight                               // 2 channels: side (difference), right; RIGHT_SIDE decorrelation.
	ChannelsMidSide                                  // 2 channels: mid (average), side (difference); MID_SIDE decorrelation.
)

var nChannels = [...]int{
	ChannelsMono:           1,
	ChannelsLR:             2,
	ChannelsLRC:            3,
	ChannelsLRLsRs:         4,
	ChannelsLRCLsRs:        5,
	ChannelsLRCLfeLsRs:     6,
	ChannelsLRCLfeCsSlSr:   7,
	ChannelsLRCLfeLsRsSlSr: 8,
	ChannelsLeftSide:       2,
	ChannelsSideRight:      2,
	ChannelsMidSide:        2,
}

// Count returns the number of channels (subframes) used by the channel
// assignment.
func (ca ChannelAssignment) Count() int {
	return nChannels[ca]
}

// IsValid reports whether ca is a defined (non-reserved) channel assignment.
func (ca ChannelAssignment) IsValid() bool {
	return ca <= ChannelsMidSide
}

// sideChannelBonus returns 1 if channel index ch carries the side
// (difference) signal under this channel assignment, and therefore needs one
// extra bit of effective sample depth; 0 otherwise. Only the 3 decorrelated
// stereo modes have a side channel.
func (ca ChannelAssignment) sideChannelBonus(ch int) uint {
	switch ca {
	case ChannelsLeftSide, ChannelsMidSide:
		if ch == 1 {
			return 1
		}
	case ChannelsSideRight:
		if ch == 0 {
			return 1
		}
	}
	return 0
}

// correlate reverts inter-channel decorrelation in place over the two
// channel buffers of a decorrelated stereo frame. It is a no-op for
// INDEPENDENT channel assignments.
//
// An encoder decorrelates samples as:
//
//	mid  = (left + right) / 2
//	side = left - right
func (ca ChannelAssignment) correlate(ch0, ch1 []int32) {
	switch ca {
	case ChannelsLeftSide:
		// ch0 = left, ch1 = side. right = left - side.
		left, side := ch0, ch1
		for i := range side {
			side[i] = left[i] - side[i]
		}
	case ChannelsSideRight:
		// ch0 = side, ch1 = right. left = right + side.
		side, right := ch0, ch1
		for i := range side {
			side[i] += right[i]
		}
	case ChannelsMidSide:
		// ch0 = mid, ch1 = side.
		mid, side := ch0, ch1
		for i := range side {
			m := mid[i] * 2
			s := side[i]
			// mid lost its LSB when the encoder averaged left+right; side's
			// parity (same as left+right's) restores it.
			m |= s & 1
			mid[i] = (m + s) >> 1
			side[i] = (m - s) >> 1
		}
	}
}
