// Package influxdb writes weighing telemetry to InfluxDB v2.
//
// Every created incoming wagon becomes one point in the incoming_wagon
// measurement, tagged by scale (vesy) with the wagon number, position and
// train number as fields. Dashboards use it for per-scale throughput.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteWeighing(influxdb.Weighing{Scale: 3, Wagon: "52345678", Position: 1, Train: 1002})
//
// # Error Handling
//
// Writes are non-blocking and batched (batch_size, flush_interval). Failures
// are delivered to the SetOnError callback. Connect and HealthCheck return
// errors directly.
package influxdb
