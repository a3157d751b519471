package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementWeighing is the measurement for incoming wagon weighings.
const MeasurementWeighing = "incoming_wagon"

// Weighing is one wagon passing over a scale.
type Weighing struct {
	Scale    int16
	Wagon    string
	Position int
	Train    int
	At       time.Time
}

// WriteWeighing records a weighing point, tagged by scale. Non-blocking;
// dropped silently while disconnected.
//
// Example:
//
//	client.WriteWeighing(influxdb.Weighing{Scale: 3, Wagon: "52345678", Position: 2, Train: 1002, At: at})
func (c *Client) WriteWeighing(w Weighing) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(weighingPoint(w))
}

func weighingPoint(w Weighing) *write.Point {
	at := w.At
	if at.IsZero() {
		at = time.Now()
	}
	return write.NewPoint(
		MeasurementWeighing,
		map[string]string{
			"vesy": strconv.Itoa(int(w.Scale)),
		},
		map[string]interface{}{
			"nvag": w.Wagon,
			"npp":  int64(w.Position),
			"tn":   int64(w.Train),
		},
		at,
	)
}
