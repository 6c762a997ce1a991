package influxhelper

import (
	"fmt"
	"strconv"
	"time"

	influxdb "github.com/influxdata/influxdb/client/v2"

	"github.com/bcaldwell/grantpulse/pkg/awardseries"
	"github.com/bcaldwell/grantpulse/pkg/config"
)

func CreateInfluxClient(secrets config.InfluxSecrets) (influxdb.Client, error) {
	return influxdb.NewHTTPClient(influxdb.HTTPConfig{
		Addr:     secrets.InfluxEndpoint,
		Username: secrets.InfluxUsername,
		Password: secrets.InfluxPassword,
	})
}

func CreateDatabase(influxClient influxdb.Client, name string) error {
	q := influxdb.NewQuery(fmt.Sprintf("CREATE DATABASE %s", name), "", "")
	if response, err := influxClient.Query(q); err != nil {
		return err
	} else if response.Error() != nil {
		return response.Error()
	}
	return nil
}

// WriteSeries publishes every year's cumulative points, one point per day
// tagged with the year, so the same trend lines can be explored in
// dashboards alongside the rendered charts.
func WriteSeries(influxClient influxdb.Client, database, measurement string, seriesByYear map[int]*awardseries.YearSeries) error {
	bp, err := influxdb.NewBatchPoints(influxdb.BatchPointsConfig{
		Database:  database,
		Precision: "s",
	})
	if err != nil {
		return err
	}

	for year, series := range seriesByYear {
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)

		for i := range series.Counts {
			pt, err := influxdb.NewPoint(measurement,
				map[string]string{"year": strconv.Itoa(year)},
				map[string]interface{}{
					"cumulative_count":  series.Counts[i],
					"cumulative_amount": series.Amounts[i],
				},
				start.AddDate(0, 0, i))
			if err != nil {
				return err
			}
			bp.AddPoint(pt)
		}
	}

	return influxClient.Write(bp)
}
