package regiond

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "regiond")
