package editor

// startWatch forwards outside changes to each tab's stored grid onto the
// event loop.
func (e *Editor) startWatch() {
	if e.opts.Watcher == nil || !e.cfg.WatchStore {
		return
	}
	for _, tab := range e.tabs {
		typ := tab.sess.Schema().Type
		ch, err := e.opts.Watcher.Watch(e.ctx, e.project, typ)
		if err != nil {
			e.log.Warn("store watch failed", "type", typ, "err", err)
			continue
		}
		go func() {
			for c := range ch {
				ev := &StoreChangeEvent{Change: c}
				ev.SetEventNow()
				e.post(ev)
			}
		}()
	}
}
