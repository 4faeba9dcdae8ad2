package meshpb

import "google.golang.org/protobuf/types/descriptorpb"

func meshMessages() []*descriptorpb.DescriptorProto {
	data := message("Data",
		field("portnum", 1, tEnum, of("PortNum")),
		field("payload", 2, tBytes),
		field("want_response", 3, tBool),
		field("dest", 4, tFixed32),
		field("source", 5, tFixed32),
		field("request_id", 6, tFixed32),
		field("reply_id", 7, tFixed32),
		field("emoji", 8, tFixed32),
		field("bitfield", 9, tUint32),
	)

	packet := message("MeshPacket",
		field("from", 1, tFixed32),
		field("to", 2, tFixed32),
		field("channel", 3, tUint32),
		field("id", 6, tFixed32),
		field("rx_time", 7, tFixed32),
		field("rx_snr", 8, tFloat),
		field("hop_limit", 9, tUint32),
		field("want_ack", 10, tBool),
		field("priority", 11, tEnum, of("MeshPacket.Priority")),
		field("rx_rssi", 12, tInt32),
		field("delayed", 13, tEnum, of("MeshPacket.Delayed")),
		field("via_mqtt", 14, tBool),
		field("hop_start", 15, tUint32),
		field("public_key", 16, tBytes),
		field("pki_encrypted", 17, tBool),
		field("next_hop", 18, tUint32),
		field("relay_node", 19, tUint32),
		field("tx_after", 20, tUint32),
	)
	oneof(packet, "payload_variant",
		field("decoded", 4, tMessage, of("Data")),
		field("encrypted", 5, tBytes),
	)
	nest(packet, nil,
		enum("Priority",
			enumValue{"UNSET", 0},
			enumValue{"MIN", 1},
			enumValue{"BACKGROUND", 10},
			enumValue{"DEFAULT", 64},
			enumValue{"RELIABLE", 70},
			enumValue{"RESPONSE", 80},
			enumValue{"HIGH", 100},
			enumValue{"ACK", 120},
			enumValue{"MAX", 127},
		),
		enum("Delayed", sequence("NO_DELAY", "DELAYED_BROADCAST", "DELAYED_DIRECT")...),
	)

	position := message("Position",
		field("latitude_i", 1, tSfixed32),
		field("longitude_i", 2, tSfixed32),
		field("altitude", 3, tInt32),
		field("time", 4, tFixed32),
		field("location_source", 5, tEnum, of("Position.LocSource")),
		field("altitude_source", 6, tEnum, of("Position.AltSource")),
		field("timestamp", 7, tFixed32),
		field("timestamp_millis_adjust", 8, tInt32),
		field("altitude_hae", 9, tSint32),
		field("altitude_geoidal_separation", 10, tSint32),
		field("PDOP", 11, tUint32),
		field("HDOP", 12, tUint32),
		field("VDOP", 13, tUint32),
		field("gps_accuracy", 14, tUint32),
		field("ground_speed", 15, tUint32),
		field("ground_track", 16, tUint32),
		field("fix_quality", 17, tUint32),
		field("fix_type", 18, tUint32),
		field("sats_in_view", 19, tUint32),
		field("sensor_id", 20, tUint32),
		field("next_update", 21, tUint32),
		field("seq_number", 22, tUint32),
		field("precision_bits", 23, tUint32),
	)
	nest(position, nil,
		enum("LocSource", sequence("LOC_UNSET", "LOC_MANUAL", "LOC_INTERNAL", "LOC_EXTERNAL")...),
		enum("AltSource", sequence("ALT_UNSET", "ALT_MANUAL", "ALT_INTERNAL", "ALT_EXTERNAL", "ALT_BAROMETRIC")...),
	)

	user := message("User",
		field("id", 1, tString),
		field("long_name", 2, tString),
		field("short_name", 3, tString),
		field("macaddr", 4, tBytes),
		field("hw_model", 5, tEnum, of("HardwareModel")),
		field("is_licensed", 6, tBool),
		field("role", 7, tEnum, of("Config.DeviceConfig.Role")),
		field("public_key", 8, tBytes),
	)

	routeDiscovery := message("RouteDiscovery",
		field("route", 1, tFixed32, repeated()),
		field("snr_towards", 2, tInt32, repeated()),
		field("route_back", 3, tFixed32, repeated()),
		field("snr_back", 4, tInt32, repeated()),
	)

	routing := oneof(message("Routing"), "variant",
		field("route_request", 1, tMessage, of("RouteDiscovery")),
		field("route_reply", 2, tMessage, of("RouteDiscovery")),
		field("error_reason", 3, tEnum, of("Routing.Error")),
	)
	nest(routing, nil, enum("Error",
		enumValue{"NONE", 0},
		enumValue{"NO_ROUTE", 1},
		enumValue{"GOT_NAK", 2},
		enumValue{"TIMEOUT", 3},
		enumValue{"NO_INTERFACE", 4},
		enumValue{"MAX_RETRANSMIT", 5},
		enumValue{"NO_CHANNEL", 6},
		enumValue{"TOO_LARGE", 7},
		enumValue{"NO_RESPONSE", 8},
		enumValue{"DUTY_CYCLE_LIMIT", 9},
		enumValue{"BAD_REQUEST", 32},
		enumValue{"NOT_AUTHORIZED", 33},
		enumValue{"PKI_FAILED", 34},
		enumValue{"PKI_UNKNOWN_PUBKEY", 35},
	))

	waypoint := message("Waypoint",
		field("id", 1, tUint32),
		field("latitude_i", 2, tSfixed32),
		field("longitude_i", 3, tSfixed32),
		field("expire", 4, tUint32),
		field("locked_to", 5, tUint32),
		field("name", 6, tString),
		field("description", 7, tString),
		field("icon", 8, tFixed32),
	)

	neighbor := message("Neighbor",
		field("node_id", 1, tUint32),
		field("snr", 2, tFloat),
		field("last_rx_time", 3, tFixed32),
		field("node_broadcast_interval_secs", 4, tUint32),
	)
	neighborInfo := message("NeighborInfo",
		field("node_id", 1, tUint32),
		field("last_sent_by_id", 2, tUint32),
		field("node_broadcast_interval_secs", 3, tUint32),
		field("neighbors", 4, tMessage, of("Neighbor"), repeated()),
	)

	// Config only carries the enums that User and AdminMessage refer to.
	config := nest(message("Config"), []*descriptorpb.DescriptorProto{
		nest(message("DeviceConfig"), nil, enum("Role", sequence(
			"CLIENT", "CLIENT_MUTE", "ROUTER", "ROUTER_CLIENT", "REPEATER", "TRACKER",
			"SENSOR", "TAK", "CLIENT_HIDDEN", "LOST_AND_FOUND", "TAK_TRACKER",
		)...)),
	})

	envelope := message("ServiceEnvelope",
		field("packet", 1, tMessage, of("MeshPacket")),
		field("channel_id", 2, tString),
		field("gateway_id", 3, tString),
	)

	return []*descriptorpb.DescriptorProto{
		data, packet, position, user, routeDiscovery, routing,
		waypoint, neighbor, neighborInfo, config, envelope,
	}
}

func hardwareModel() *descriptorpb.EnumDescriptorProto {
	values := sequence(
		"UNSET", "TLORA_V2", "TLORA_V1", "TLORA_V2_1_1P6", "TBEAM", "HELTEC_V2_0",
		"TBEAM_V0P7", "T_ECHO", "TLORA_V1_1P3", "RAK4631", "HELTEC_V2_1", "HELTEC_V1",
		"LILYGO_TBEAM_S3_CORE", "RAK11200", "NANO_G1", "TLORA_V2_1_1P8", "TLORA_T3_S3",
		"NANO_G1_EXPLORER", "NANO_G2_ULTRA", "LORA_TYPE", "WIPHONE", "WIO_WM1110",
		"RAK2560", "HELTEC_HRU_3601",
	)
	values = append(values,
		enumValue{"STATION_G1", 25},
		enumValue{"RAK11310", 26},
		enumValue{"SENSELORA_RP2040", 27},
		enumValue{"SENSELORA_S3", 28},
		enumValue{"CANARYONE", 29},
		enumValue{"RP2040_LORA", 30},
		enumValue{"STATION_G2", 31},
		enumValue{"LORA_RELAY_V1", 32},
		enumValue{"NRF52840DK", 33},
		enumValue{"PPR", 34},
		enumValue{"GENIEBLOCKS", 35},
		enumValue{"NRF52_UNKNOWN", 36},
		enumValue{"PORTDUINO", 37},
		enumValue{"ANDROID_SIM", 38},
		enumValue{"DIY_V1", 39},
		enumValue{"NRF52840_PCA10059", 40},
		enumValue{"DR_DEV", 41},
		enumValue{"M5STACK", 42},
		enumValue{"HELTEC_V3", 43},
		enumValue{"HELTEC_WSL_V3", 44},
		enumValue{"BETAFPV_2400_TX", 45},
		enumValue{"BETAFPV_900_NANO_TX", 46},
		enumValue{"RPI_PICO", 47},
		enumValue{"HELTEC_WIRELESS_TRACKER", 48},
		enumValue{"HELTEC_WIRELESS_PAPER", 49},
		enumValue{"T_DECK", 50},
		enumValue{"PRIVATE_HW", 255},
	)
	return enum("HardwareModel", values...)
}
