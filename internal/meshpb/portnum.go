package meshpb

import "strconv"

// PortNum identifies the application payload carried in Data.payload.
type PortNum int32

const (
	UnknownApp               PortNum = 0
	TextMessageApp           PortNum = 1
	RemoteHardwareApp        PortNum = 2
	PositionApp              PortNum = 3
	NodeInfoApp              PortNum = 4
	RoutingApp               PortNum = 5
	AdminApp                 PortNum = 6
	TextMessageCompressedApp PortNum = 7
	WaypointApp              PortNum = 8
	AudioApp                 PortNum = 9
	DetectionSensorApp       PortNum = 10
	AlertApp                 PortNum = 11
	ReplyApp                 PortNum = 32
	IPTunnelApp              PortNum = 33
	PaxcounterApp            PortNum = 34
	SerialApp                PortNum = 64
	StoreForwardApp          PortNum = 65
	RangeTestApp             PortNum = 66
	TelemetryApp             PortNum = 67
	ZPSApp                   PortNum = 68
	SimulatorApp             PortNum = 69
	TracerouteApp            PortNum = 70
	NeighborInfoApp          PortNum = 71
	AtakPlugin               PortNum = 72
	MapReportApp             PortNum = 73
	PrivateApp               PortNum = 256
	AtakForwarder            PortNum = 257
)

var portNames = []enumValue{
	{"UNKNOWN_APP", 0},
	{"TEXT_MESSAGE_APP", 1},
	{"REMOTE_HARDWARE_APP", 2},
	{"POSITION_APP", 3},
	{"NODEINFO_APP", 4},
	{"ROUTING_APP", 5},
	{"ADMIN_APP", 6},
	{"TEXT_MESSAGE_COMPRESSED_APP", 7},
	{"WAYPOINT_APP", 8},
	{"AUDIO_APP", 9},
	{"DETECTION_SENSOR_APP", 10},
	{"ALERT_APP", 11},
	{"REPLY_APP", 32},
	{"IP_TUNNEL_APP", 33},
	{"PAXCOUNTER_APP", 34},
	{"SERIAL_APP", 64},
	{"STORE_FORWARD_APP", 65},
	{"RANGE_TEST_APP", 66},
	{"TELEMETRY_APP", 67},
	{"ZPS_APP", 68},
	{"SIMULATOR_APP", 69},
	{"TRACEROUTE_APP", 70},
	{"NEIGHBORINFO_APP", 71},
	{"ATAK_PLUGIN", 72},
	{"MAP_REPORT_APP", 73},
	{"PRIVATE_APP", 256},
	{"ATAK_FORWARDER", 257},
	{"MAX", 511},
}

func (p PortNum) String() string {
	for _, v := range portNames {
		if v.num == int32(p) {
			return v.name
		}
	}
	return "PORTNUM_" + strconv.Itoa(int(p))
}

// ParsePortNum accepts an enum name ("TEXT_MESSAGE_APP") or its number.
func ParsePortNum(s string) (PortNum, bool) {
	for _, v := range portNames {
		if v.name == s {
			return PortNum(v.num), true
		}
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return PortNum(n), true
}
