package engine

// CenterComposition 把整个组合作为一个整体水平居中：用所有对象包围盒的并集计算偏移，
// 再平移每个对象并写回模型。
func (e *Engine) CenterComposition() error {
	e.lock()
	defer e.unlock()
	if err := e.ready(); err != nil {
		return err
	}
	e.centerComposition()
	return nil
}

// centerComposition must be called with the lock held.
func (e *Engine) centerComposition() {
	bounds, ok := e.scene.Bounds()
	if !ok {
		return
	}
	dx := e.scene.Center().X - bounds.Center().X
	for _, o := range e.scene.Objects() {
		o.MoveBy(dx, 0)
		e.propagate(o)
	}
	e.publishModel()
}

// CenterEachObject 把每个对象分别水平居中并写回模型。
func (e *Engine) CenterEachObject() error {
	e.lock()
	defer e.unlock()
	if err := e.ready(); err != nil {
		return err
	}
	objects := e.scene.Objects()
	if len(objects) == 0 {
		return nil
	}
	cx := e.scene.Center().X
	for _, o := range objects {
		o.MoveBy(cx-o.Center().X, 0)
		e.propagate(o)
	}
	e.publishModel()
	return nil
}
