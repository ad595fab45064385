package providers

// WithCluster creates the cluster, runs fn against it, then deletes the
// cluster again when the create provisioned it. Clusters that existed
// before the call are left running. The delete runs even when fn fails,
// a delete failure is logged and the error from fn wins.
func WithCluster(c *KindCluster, fn func(*KindCluster) error) error {
	if err := c.Create(); err != nil {
		return err
	}

	defer func() {
		if !c.Owned() {
			c.log.Debug("Cluster not owned, leaving running", "ref", c.Name())
			return
		}

		if err := c.Delete(); err != nil {
			c.log.Error("Failed to delete scoped cluster", "ref", c.Name(), "error", err)
		}
	}()

	return fn(c)
}
