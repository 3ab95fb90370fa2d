// Package store 提供文档问答服务的向量存储层。
//
// 每个文档对应一个集合，集合内记录为 (id, vector, text)。
// VectorStore 接口之下有四个后端：milvus、qdrant、pgvector 和进程内的 memory。
// 后端只实现原始操作，标识校验、维度校验、集合创建去重以及错误分类
// 统一由 collectionStore 完成。
package store
