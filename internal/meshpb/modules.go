package meshpb

import "google.golang.org/protobuf/types/descriptorpb"

func moduleMessages() []*descriptorpb.DescriptorProto {
	deviceMetrics := message("DeviceMetrics",
		field("battery_level", 1, tUint32),
		field("voltage", 2, tFloat),
		field("channel_utilization", 3, tFloat),
		field("air_util_tx", 4, tFloat),
		field("uptime_seconds", 5, tUint32),
	)
	environmentMetrics := message("EnvironmentMetrics",
		field("temperature", 1, tFloat),
		field("relative_humidity", 2, tFloat),
		field("barometric_pressure", 3, tFloat),
		field("gas_resistance", 4, tFloat),
		field("voltage", 5, tFloat),
		field("current", 6, tFloat),
		field("iaq", 7, tUint32),
		field("distance", 8, tFloat),
		field("lux", 9, tFloat),
	)
	airQualityMetrics := message("AirQualityMetrics",
		field("pm10_standard", 1, tUint32),
		field("pm25_standard", 2, tUint32),
		field("pm100_standard", 3, tUint32),
		field("pm10_environmental", 4, tUint32),
		field("pm25_environmental", 5, tUint32),
		field("pm100_environmental", 6, tUint32),
		field("particles_03um", 7, tUint32),
		field("particles_05um", 8, tUint32),
		field("particles_10um", 9, tUint32),
		field("particles_25um", 10, tUint32),
		field("particles_50um", 11, tUint32),
		field("particles_100um", 12, tUint32),
	)
	powerMetrics := message("PowerMetrics",
		field("ch1_voltage", 1, tFloat),
		field("ch1_current", 2, tFloat),
		field("ch2_voltage", 3, tFloat),
		field("ch2_current", 4, tFloat),
		field("ch3_voltage", 5, tFloat),
		field("ch3_current", 6, tFloat),
	)
	telemetry := oneof(message("Telemetry", field("time", 1, tFixed32)), "variant",
		field("device_metrics", 2, tMessage, of("DeviceMetrics")),
		field("environment_metrics", 3, tMessage, of("EnvironmentMetrics")),
		field("air_quality_metrics", 4, tMessage, of("AirQualityMetrics")),
		field("power_metrics", 5, tMessage, of("PowerMetrics")),
	)

	hardware := message("HardwareMessage",
		field("type", 1, tEnum, of("HardwareMessage.Type")),
		field("gpio_mask", 2, tUint64),
		field("gpio_value", 3, tUint64),
	)
	nest(hardware, nil, enum("Type", sequence(
		"UNSET", "WRITE_GPIOS", "WATCH_GPIOS", "GPIOS_CHANGED", "READ_GPIOS", "READ_GPIOS_REPLY",
	)...))

	storeForward := oneof(message("StoreAndForward",
		field("rr", 1, tEnum, of("StoreAndForward.RequestResponse")),
	), "variant",
		field("stats", 2, tMessage, of("StoreAndForward.Statistics")),
		field("history", 3, tMessage, of("StoreAndForward.History")),
		field("heartbeat", 4, tMessage, of("StoreAndForward.Heartbeat")),
		field("text", 5, tBytes),
	)
	nest(storeForward, []*descriptorpb.DescriptorProto{
		message("Statistics",
			field("messages_total", 1, tUint32),
			field("messages_saved", 2, tUint32),
			field("messages_max", 3, tUint32),
			field("up_time", 4, tUint32),
			field("requests", 5, tUint32),
			field("requests_history", 6, tUint32),
			field("heartbeat", 7, tBool),
			field("return_max", 8, tUint32),
			field("return_window", 9, tUint32),
		),
		message("History",
			field("history_messages", 1, tUint32),
			field("window", 2, tUint32),
			field("last_request", 3, tUint32),
		),
		message("Heartbeat",
			field("period", 1, tUint32),
			field("secondary", 2, tUint32),
		),
	}, enum("RequestResponse",
		enumValue{"UNSET", 0},
		enumValue{"ROUTER_ERROR", 1},
		enumValue{"ROUTER_HEARTBEAT", 2},
		enumValue{"ROUTER_PING", 3},
		enumValue{"ROUTER_PONG", 4},
		enumValue{"ROUTER_BUSY", 5},
		enumValue{"ROUTER_HISTORY", 6},
		enumValue{"ROUTER_STATS", 7},
		enumValue{"ROUTER_TEXT_DIRECT", 8},
		enumValue{"ROUTER_TEXT_BROADCAST", 9},
		enumValue{"CLIENT_ERROR", 64},
		enumValue{"CLIENT_HISTORY", 65},
		enumValue{"CLIENT_STATS", 66},
		enumValue{"CLIENT_PING", 67},
		enumValue{"CLIENT_PONG", 68},
		enumValue{"CLIENT_ABORT", 106},
	))

	paxcount := message("Paxcount",
		field("wifi", 1, tUint32),
		field("ble", 2, tUint32),
		field("uptime", 3, tUint32),
	)

	// AdminMessage carries the request/response variants that do not depend on
	// the full device configuration tree. Other variants survive a binary round
	// trip as unknown fields.
	admin := oneof(message("AdminMessage"), "payload_variant",
		field("get_channel_request", 1, tUint32),
		field("get_owner_request", 3, tBool),
		field("get_owner_response", 4, tMessage, of("User")),
		field("get_config_request", 5, tEnum, of("AdminMessage.ConfigType")),
		field("get_module_config_request", 7, tEnum, of("AdminMessage.ModuleConfigType")),
		field("get_canned_message_module_messages_request", 10, tBool),
		field("get_canned_message_module_messages_response", 11, tString),
		field("get_device_metadata_request", 12, tBool),
		field("get_ringtone_request", 14, tBool),
		field("get_ringtone_response", 15, tString),
		field("set_owner", 32, tMessage, of("User")),
		field("set_canned_message_module_messages", 36, tString),
		field("set_ringtone_message", 37, tString),
		field("remove_by_nodenum", 38, tUint32),
		field("set_favorite_node", 39, tUint32),
		field("remove_favorite_node", 40, tUint32),
		field("begin_edit_settings", 64, tBool),
		field("commit_edit_settings", 65, tBool),
		field("reboot_ota_seconds", 95, tInt32),
		field("exit_simulator", 96, tBool),
		field("reboot_seconds", 97, tInt32),
		field("shutdown_seconds", 98, tInt32),
		field("factory_reset", 99, tInt32),
		field("nodedb_reset", 100, tInt32),
	)
	nest(admin, nil,
		enum("ConfigType", sequence(
			"DEVICE_CONFIG", "POSITION_CONFIG", "POWER_CONFIG", "NETWORK_CONFIG",
			"DISPLAY_CONFIG", "LORA_CONFIG", "BLUETOOTH_CONFIG", "SECURITY_CONFIG",
		)...),
		enum("ModuleConfigType", sequence(
			"MQTT_CONFIG", "SERIAL_CONFIG", "EXTNOTIF_CONFIG", "STOREFORWARD_CONFIG",
			"RANGETEST_CONFIG", "TELEMETRY_CONFIG", "CANNEDMSG_CONFIG", "AUDIO_CONFIG",
			"REMOTEHARDWARE_CONFIG", "NEIGHBORINFO_CONFIG", "AMBIENTLIGHTING_CONFIG",
			"DETECTIONSENSOR_CONFIG", "PAXCOUNTER_CONFIG",
		)...),
	)

	return []*descriptorpb.DescriptorProto{
		deviceMetrics, environmentMetrics, airQualityMetrics, powerMetrics, telemetry,
		hardware, storeForward, paxcount, admin,
	}
}
