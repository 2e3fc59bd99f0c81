/*
Copyright 2026 Veriqan Authors.

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

// Package logging provides a chainable structured-field builder shared by
// every stage that logs through logr.Logger, so field names stay consistent
// across the pipeline regardless of the underlying sink.
package logging

import "time"

// Fields is a chainable builder of structured log fields.
type Fields map[string]interface{}

// NewFields starts an empty builder.
func NewFields() Fields {
	return Fields{}
}

func (f Fields) Component(name string) Fields {
	f["component"] = name
	return f
}

func (f Fields) Operation(op string) Fields {
	f["operation"] = op
	return f
}

func (f Fields) Resource(resourceType, name string) Fields {
	f["resource_type"] = resourceType
	if name != "" {
		f["resource_name"] = name
	}
	return f
}

func (f Fields) Duration(d time.Duration) Fields {
	f["duration_ms"] = d.Milliseconds()
	return f
}

func (f Fields) Error(err error) Fields {
	if err != nil {
		f["error"] = err.Error()
	}
	return f
}

func (f Fields) UserID(id string) Fields {
	if id != "" {
		f["user_id"] = id
	}
	return f
}

func (f Fields) RequestID(id string) Fields {
	f["request_id"] = id
	return f
}

func (f Fields) TraceID(id string) Fields {
	f["trace_id"] = id
	return f
}

func (f Fields) CorrelationID(id string) Fields {
	if id != "" {
		f["correlation_id"] = id
	}
	return f
}

func (f Fields) FileID(id string) Fields {
	if id != "" {
		f["file_id"] = id
	}
	return f
}

func (f Fields) StatusCode(code int) Fields {
	f["status_code"] = code
	return f
}

func (f Fields) Method(method string) Fields {
	f["method"] = method
	return f
}

func (f Fields) URL(url string) Fields {
	f["url"] = url
	return f
}

func (f Fields) Count(n int) Fields {
	f["count"] = n
	return f
}

func (f Fields) Size(bytes int64) Fields {
	f["size_bytes"] = bytes
	return f
}

func (f Fields) Version(v string) Fields {
	f["version"] = v
	return f
}

func (f Fields) Custom(key string, value interface{}) Fields {
	f[key] = value
	return f
}

// ToKeyValues flattens the builder into the alternating key/value slice
// logr.Logger.WithValues expects.
func (f Fields) ToKeyValues() []interface{} {
	kvs := make([]interface{}, 0, len(f)*2)
	for k, v := range f {
		kvs = append(kvs, k, v)
	}
	return kvs
}

// DatabaseFields seeds the common fields for a persistence-layer log line.
func DatabaseFields(operation, table string) Fields {
	return NewFields().Component("database").Operation(operation).Resource("table", table)
}

// HTTPFields seeds the common fields for an HTTP request/response log line.
func HTTPFields(method, url string, statusCode int) Fields {
	return NewFields().Component("http").Method(method).URL(url).StatusCode(statusCode)
}

// IngestionFields seeds the common fields for an ingestion-stage log line.
func IngestionFields(operation, fileID string) Fields {
	return NewFields().Component("ingestion").Operation(operation).FileID(fileID)
}

// ClassificationFields seeds the common fields for a classification-stage
// log line, including the rule/model that produced the label.
func ClassificationFields(operation, fileID, engine string) Fields {
	return NewFields().Component("classification").Operation(operation).FileID(fileID).Custom("engine", engine)
}

// DecisionLogicFields seeds the common fields for a decision-logic log line.
func DecisionLogicFields(operation, expedienteID string) Fields {
	return NewFields().Component("decision_logic").Operation(operation).Resource("expediente", expedienteID)
}

// SLAFields seeds the common fields for an SLA-tracking log line.
func SLAFields(operation, caseID string, escalationLevel string) Fields {
	return NewFields().Component("sla").Operation(operation).Resource("case", caseID).Custom("escalation_level", escalationLevel)
}

// SecurityFields seeds the common fields for an auth/authorization log line.
func SecurityFields(operation, subject string) Fields {
	return NewFields().Component("security").Operation(operation).Custom("subject", subject)
}

// PerformanceFields seeds the common fields for a timed-operation log line.
func PerformanceFields(operation string, duration time.Duration, success bool) Fields {
	return NewFields().Component("performance").Operation(operation).Duration(duration).Custom("success", success)
}

// MetricsFields seeds the common fields for a metrics-emission log line.
func MetricsFields(operation, metricName string, value float64) Fields {
	return NewFields().Component("metrics").Operation(operation).Custom("metric_name", metricName).Custom("value", value)
}
