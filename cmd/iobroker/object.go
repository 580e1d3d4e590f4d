package main

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagObjectType string

	cmdObject = &cobra.Command{
		Use:   `object`,
		Short: `read and watch objects`,
		Run:   usage,
	}

	cmdObjectGet = &cobra.Command{
		Use:     `get <id>`,
		Short:   `print an object`,
		Args:    cobra.ExactArgs(1),
		PreRun:  setupClient,
		Run:     objectGet,
		PostRun: closeClient,
	}

	cmdObjectList = &cobra.Command{
		Use:     `list [prefix]`,
		Short:   `list object ids, optionally below prefix`,
		Args:    cobra.MaximumNArgs(1),
		PreRun:  setupClient,
		Run:     objectList,
		PostRun: closeClient,
	}

	cmdObjectWatch = &cobra.Command{
		Use:     `watch <id|pattern>...`,
		Short:   `print object changes until interrupted`,
		Args:    cobra.MinimumNArgs(1),
		PreRun:  setupClient,
		Run:     objectWatch,
		PostRun: closeClient,
	}
)

func init() {
	cmdObjectList.Flags().StringVar(&flagObjectType, `type`, ``, `only list objects of this type, like state or device`)

	cmdObject.AddCommand(cmdObjectGet)
	cmdObject.AddCommand(cmdObjectList)
	cmdObject.AddCommand(cmdObjectWatch)
}

func objectGet(c *cobra.Command, args []string) {
	ctx, cancel := requestContext()
	defer cancel()

	obj, err := client.GetObject(ctx, args[0])
	if err != nil {
		logger.WithFields(logrus.Fields{
			`id`:    args[0],
			`error`: err,
		}).Fatalln(`Failed getting object`)
	}
	if obj == nil {
		logger.WithField(`id`, args[0]).Fatalln(`Object not found`)
	}
	printJSON(obj)
}

func objectList(c *cobra.Command, args []string) {
	ctx, cancel := requestContext()
	defer cancel()

	objects, err := client.GetObjects(ctx)
	if err != nil {
		logger.WithField(`error`, err).Fatalln(`Failed getting objects`)
	}

	prefix := ``
	if len(args) == 1 {
		prefix = args[0]
	}
	ids := make([]string, 0, len(objects))
	for id, obj := range objects {
		if obj == nil || !strings.HasPrefix(id, prefix) {
			continue
		}
		if flagObjectType != `` && obj.Type != flagObjectType {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		logger.WithFields(logrus.Fields{
			`type`: objects[id].Type,
			`name`: objects[id].Name(``),
		}).Infoln(id)
	}
}

func objectWatch(c *cobra.Command, args []string) {
	sub, err := client.ObjectChanges()
	if err != nil {
		logger.WithField(`error`, err).Fatalln(`Failed subscribing`)
	}

	ctx, cancel := requestContext()
	for _, id := range args {
		if err := client.ListenObjectChanges(ctx, id); err != nil {
			logger.WithFields(logrus.Fields{
				`id`:    id,
				`error`: err,
			}).Fatalln(`Failed listening to object changes`)
		}
	}
	cancel()

	ctx, cancel = watchContext()
	defer cancel()
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			printJSON(ev)
		case <-ctx.Done():
			return
		}
	}
}
