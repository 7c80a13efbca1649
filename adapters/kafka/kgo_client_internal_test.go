package kafka

import (
	"testing"
	"time"
)

func TestConfig_TimeoutsDefaultAndOverride(t *testing.T) {
	d, r := Config{}.timeouts()
	if d != DefaultDeliveryTimeout || r != DefaultRequestTimeout {
		t.Fatalf("defaults: delivery=%v request=%v", d, r)
	}

	d, r = Config{DeliveryTimeout: time.Second, RequestTimeout: -1}.timeouts()
	if d != time.Second || r != DefaultRequestTimeout {
		t.Fatalf("override: delivery=%v request=%v", d, r)
	}
}
