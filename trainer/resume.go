package trainer

import "github.com/pkg/errors"
import "github.com/sirupsen/logrus"

// Checkpointed models can read their weights back.
type Checkpointed interface {
	ReadCompressedWeightsFromFile(name string) error
}

// Resume loads dstmodel into model when resume is set.
func Resume(model Checkpointed, resume *bool, dstmodel *string, log logrus.FieldLogger) error {
	if resume == nil || !*resume || dstmodel == nil || *dstmodel == "" {
		return nil
	}
	if err := model.ReadCompressedWeightsFromFile(*dstmodel); err != nil {
		return errors.Wrapf(err, "resuming from %s", *dstmodel)
	}
	log.Infof("resumed from %s", *dstmodel)
	return nil
}
