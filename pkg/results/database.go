package results

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const databaseBatchSize = 100

type DatabaseOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
	SslMode  bool
	Timezone string
}

type datapointRecord struct {
	ID            uint           `gorm:"primaryKey"`
	RunUuid       string         `gorm:"index; not null"`
	Suite         string         `gorm:"index; not null"`
	Benchmark     string         `gorm:"not null"`
	Metric        string         `gorm:"not null"`
	Value         float64        `gorm:"not null"`
	Unit          string         `gorm:"not null"`
	Better        string         `gorm:"not null"`
	GuestVm       string         `gorm:"not null"`
	GuestVmConfig string         `gorm:"not null"`
	HostVm        string         `gorm:"not null"`
	HostVmConfig  string         `gorm:"not null"`
	Args          pq.StringArray `gorm:"type:text[]; not null"`
	ExitCode      int            `gorm:"not null"`
	Error         string
	Dimensions    string `gorm:"type:jsonb"`
	Timestamp     time.Time
	CreatedAt     time.Time
}

func (datapointRecord) TableName() string {
	return "benchmark_datapoints"
}

// DatabaseSink stores datapoints in postgres.
type DatabaseSink struct {
	db *gorm.DB
}

// NewDatabaseSink connects to postgres and migrates the datapoint table.
func NewDatabaseSink(opts DatabaseOptions) (*DatabaseSink, error) {
	log.Infof("connecting to database server: %s:%d", opts.Host, opts.Port)

	sslMode := "disable"
	if opts.SslMode {
		sslMode = "require"
	}
	timezone := "UTC"
	if opts.Timezone != "" {
		timezone = opts.Timezone
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s", opts.Host, opts.Port, opts.Username, opts.Password, opts.Database, sslMode, timezone)
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: dsn,
	}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&datapointRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &DatabaseSink{db: db}, nil
}

func (d *DatabaseSink) Name() string {
	return "database"
}

func (d *DatabaseSink) Publish(ctx context.Context, datapoints []Datapoint) error {
	if len(datapoints) == 0 {
		return nil
	}
	records := make([]datapointRecord, 0, len(datapoints))
	for _, dp := range datapoints {
		record, err := toRecord(dp)
		if err != nil {
			return err
		}
		records = append(records, record)
	}
	if err := d.db.WithContext(ctx).CreateInBatches(records, databaseBatchSize).Error; err != nil {
		return fmt.Errorf("failed to store datapoints: %w", err)
	}
	return nil
}

func (d *DatabaseSink) Close() error {
	sqlDb, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	if err := sqlDb.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

func toRecord(dp Datapoint) (datapointRecord, error) {
	dims, err := json.Marshal(dp.Dimensions)
	if err != nil {
		return datapointRecord{}, fmt.Errorf("failed to encode dimensions of %s: %w", dp.Key(), err)
	}
	args := pq.StringArray{}
	args = append(args, dp.Args...)
	return datapointRecord{
		RunUuid:       dp.RunUuid,
		Suite:         dp.Suite,
		Benchmark:     dp.Benchmark,
		Metric:        dp.Metric,
		Value:         dp.Value,
		Unit:          dp.Unit,
		Better:        dp.Better,
		GuestVm:       dp.GuestVm,
		GuestVmConfig: dp.GuestVmConfig,
		HostVm:        dp.HostVm,
		HostVmConfig:  dp.HostVmConfig,
		Args:          args,
		ExitCode:      dp.ExitCode,
		Error:         dp.Error,
		Dimensions:    string(dims),
		Timestamp:     dp.Timestamp,
	}, nil
}
