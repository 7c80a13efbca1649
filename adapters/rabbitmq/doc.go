/*
Package rabbitmq provides a RabbitMQ sink for the agent bus.
It mirrors records to a topic exchange, includes an auto-reconnect publisher,
and supports optional header propagation via a bus.HeaderPropagator.
*/
package rabbitmq
