// Package biz 提供文档问答服务的业务逻辑层。
//
// Processor 串联以下步骤：
//   - 入库：分块、并发向量化（ants 工作池）、写入文档对应的向量集合
//   - 问答：问题分块向量化、逐块相似度检索、拼装提示词、调用生成模型
//
// 单个文本块向量化失败只会被记录并丢弃，其余错误原样向上返回。
package biz
