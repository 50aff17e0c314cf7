/*
Copyright 2018 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package logrusutil implements some helpers for using logrus
package logrusutil

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// FormatEnvVar selects the log format: text, json (the default) or gcp
	FormatEnvVar = "LOGRUS_FORMAT"
	// PrettyEnvVar pretty prints json logs when set to true
	PrettyEnvVar = "LOGRUS_JSON_PRETTY"
)

// DefaultFieldsFormatter wraps another logrus.Formatter, adding DefaultFields to
// every entry. Fields already on the entry win.
type DefaultFieldsFormatter struct {
	WrappedFormatter logrus.Formatter
	DefaultFields    logrus.Fields
	PrintLineNumber  bool
}

// Init sets the logrus formatter, wrapping CreateDefaultFormatter() if no formatter is given
func Init(formatter *DefaultFieldsFormatter) {
	if formatter == nil {
		return
	}
	if formatter.WrappedFormatter == nil {
		formatter.WrappedFormatter = CreateDefaultFormatter()
	}
	logrus.SetFormatter(formatter)
	logrus.SetReportCaller(formatter.PrintLineNumber)
}

// CreateDefaultFormatter creates the formatter selected by $LOGRUS_FORMAT
func CreateDefaultFormatter() logrus.Formatter {
	switch os.Getenv(FormatEnvVar) {
	case "text":
		return &logrus.TextFormatter{
			ForceColors:      true,
			DisableTimestamp: true,
		}
	case "gcp":
		// field names understood by Cloud Logging
		return &logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "severity",
				logrus.FieldKeyMsg:   "message",
			},
		}
	}
	return &logrus.JSONFormatter{
		PrettyPrint: os.Getenv(PrettyEnvVar) == "true",
	}
}

// ComponentInit initialises logging for a binary, tagging every entry with the component and version
func ComponentInit(component, version string) {
	Init(
		&DefaultFieldsFormatter{
			DefaultFields: logrus.Fields{
				"component": component,
				"version":   version,
			},
		},
	)
}

// Format implements logrus.Formatter's Format. The entry is copied so the caller's
// Fields map is never written to.
func (f *DefaultFieldsFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	data := make(logrus.Fields, len(entry.Data)+len(f.DefaultFields))
	for k, v := range f.DefaultFields {
		data[k] = v
	}
	for k, v := range entry.Data {
		data[k] = v
	}
	clone := entry.Dup()
	clone.Data = data
	clone.Time = entry.Time
	clone.Level = entry.Level
	clone.Message = entry.Message
	clone.Caller = entry.Caller
	return f.WrappedFormatter.Format(clone)
}
