// Package design describes the todo-app architecture using the C4 model, render it with:
//
//	mdl serve github.com/sanLimbu/todo-app/docs/design -dir docs/design
package design

import (
	. "goa.design/model/dsl" //nolint: revive, stylecheck
)

var _ = Design("todo-app", "Single-user task tracker.", func() {
	var System = SoftwareSystem("todo-app", "Stores tasks and exposes them over HTTP.", func() {
		Container("CLI", "Presentation shell rendering the client state.", "Go, cobra", func() {
			Uses("REST Server", "Lists and changes tasks", "HTTP/JSON", Synchronous)
			Tag("client")
		})

		Container("REST Server", "Serves /api/todos.", "Go, chi", func() {
			Uses("PostgreSQL", "Persists tasks", "pgx", Synchronous)
			Uses("SQLite", "Persists tasks when running locally", "database/sql", Synchronous)
			Uses("Memcached", "Caches the task list", "gomemcache", Synchronous)
			Uses("Redis", "Caches the task list", "go-redis", Synchronous)
			Uses("Kafka", "Publishes task events", "confluent-kafka-go", Asynchronous)
			Uses("RabbitMQ", "Publishes task events", "amqp", Asynchronous)
			Uses("Elasticsearch", "Searches tasks", "HTTP", Synchronous)
			Tag("server")
		})

		Container("Elasticsearch Indexer Kafka", "Indexes task events consumed from Kafka.", "Go", func() {
			Uses("Kafka", "Consumes task events", "confluent-kafka-go", Asynchronous)
			Uses("Elasticsearch", "Indexes tasks", "HTTP", Synchronous)
		})

		Container("Elasticsearch Indexer RabbitMQ", "Indexes task events consumed from RabbitMQ.", "Go", func() {
			Uses("RabbitMQ", "Consumes task events", "amqp", Asynchronous)
			Uses("Elasticsearch", "Indexes tasks", "HTTP", Synchronous)
		})

		Container("PostgreSQL", "Task records.", "PostgreSQL", func() {
			Tag("database")
		})

		Container("SQLite", "Task records for local development.", "SQLite", func() {
			Tag("database")
		})

		Container("Memcached", "Cached task list.", "Memcached", func() {
			Tag("cache")
		})

		Container("Redis", "Cached task list.", "Redis", func() {
			Tag("cache")
		})

		Container("Kafka", "Task events.", "Kafka", func() {
			Tag("broker")
		})

		Container("RabbitMQ", "Task events.", "RabbitMQ", func() {
			Tag("broker")
		})

		Container("Elasticsearch", "Searchable tasks.", "Elasticsearch", func() {
			Tag("database")
		})
	})

	Person("User", "Someone keeping track of their tasks.", func() {
		Uses(System, "Adds, completes and deletes tasks")
		Tag("person")
	})

	Views(func() {
		SystemContextView(System, "SystemContext", "System context diagram.", func() {
			AddAll()
			AutoLayout(RankLeftRight)
		})

		ContainerView(System, "Containers", "Container diagram.", func() {
			AddAll()
			AutoLayout(RankTopBottom)
		})
	})
})
