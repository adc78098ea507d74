package lib

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

var kafkaProducer *kafka.Producer

func GetKafkaProducer(clientId string) (*kafka.Producer, error) {
	if kafkaProducer != nil {
		return kafkaProducer, nil
	}
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": os.Getenv("KAFKA_BROKER"),
		"client.id":         clientId,
		"acks":              "all",
	})
	if err != nil {
		log.Printf("Error initializing kafka producer: %s\n", err.Error())
		return nil, err
	}
	kafkaProducer = p
	return p, nil
}

func KafkaProduceMessage(clientId string, topic string, payload map[string]any) error {
	p, err := GetKafkaProducer(clientId)
	if err != nil {
		return err
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	err = p.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          value,
	}, nil)
	if err != nil {
		log.Printf("Error producing message to %s: %s\n", topic, err.Error())
		return err
	}
	return nil
}

// KafkaConsume polls a topic and hands each message body to handler. Runs
// until the consumer errors out.
func KafkaConsume(groupId string, topic string, handler func(body string)) {
	master, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers": os.Getenv("KAFKA_BROKER"),
		"group.id":          groupId,
		"auto.offset.reset": "smallest",
		"retry.backoff.ms":  100,
	})
	if err != nil {
		log.Printf("Error initializing kafka consumer: %s\n", err.Error())
		return
	}
	if err := master.SubscribeTopics([]string{topic}, nil); err != nil {
		log.Printf("Error subscribing to topic %s: %s\n", topic, err.Error())
		return
	}
	go func() {
		log.Printf("[%s] waiting for messages...\n", topic)
		run := true
		for run {
			ev := master.Poll(100)
			switch e := ev.(type) {
			case *kafka.Message:
				handler(string(e.Value))
			case kafka.Error:
				log.Printf("[%s] consumer error: %v\n", topic, e)
				run = false
			}
		}
		master.Close()
	}()
}

func KafkaCreateTopics(topics ...string) ([]kafka.TopicResult, error) {
	a, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": os.Getenv("KAFKA_BROKER"),
	})
	if err != nil {
		log.Printf("Error on AdminClient: %s\n", err.Error())
		return nil, err
	}
	topicsDef := []kafka.TopicSpecification{}
	for _, topic := range topics {
		topicsDef = append(topicsDef, kafka.TopicSpecification{
			Topic:         topic,
			NumPartitions: 10,
		})
	}
	result, err := a.CreateTopics(context.Background(), topicsDef)
	if err != nil {
		log.Printf("Error creating topics: %s\n", err.Error())
		return nil, err
	}
	return result, nil
}
