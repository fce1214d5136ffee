// Package stream publishes run results to Kafka as they are produced.
//
// Every outcome becomes one "outcome" message and every finished run one
// "summary" message. All messages of a run share the run ID as their key so
// they land on the same partition in order.
package stream
